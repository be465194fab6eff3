package tsemitter

import (
	"testing"

	"github.com/mark3labs/swagger2ts/internal/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, res *translate.Result, opts RenderOptions) map[string]string {
	t.Helper()
	files, err := Render(res, opts)
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.RelPath] = string(f.Content)
	}
	return out
}

func usersResult() *translate.Result {
	return &translate.Result{
		Groups: []*translate.Group{{
			Tag: "User",
			Items: []*translate.RequestItem{{
				Name:         "getUsers",
				URL:          "/users/{id}",
				Method:       "get",
				Summary:      "Fetch a user",
				Tag:          "User",
				PathType:     "{\n  id: number;\n}",
				PathKeys:     map[string]string{"id": "id"},
				QueryType:    "{\n  page?: number;\n}",
				ResponseType: "User",
			}},
		}},
		RefTypes: []translate.RefType{{Name: "User", Description: "a user", Expr: "{\n  name?: string;\n}"}},
		Refs:     map[string]bool{"User": true},
	}
}

func TestRenderRequestModule(t *testing.T) {
	files := render(t, usersResult(), RenderOptions{Scope: "petstore", URLPrefix: "/api"})

	want := generatedHeader +
		"import { request } from '@/utils/request'\n" +
		"import type { RequestConfig } from '@/utils/request'\n" +
		"\n" +
		"/**\n" +
		" * Fetch a user\n" +
		" */\n" +
		"export function getUsers(path: API.Petstore.User.GetUsersPath, query?: API.Petstore.User.GetUsersQuery, config?: RequestConfig) {\n" +
		"  return request<API.Petstore.User.GetUsersResponse>({\n" +
		"    method: 'GET',\n" +
		"    url: `/api/users/${path.id}`,\n" +
		"    params: query,\n" +
		"    ...config,\n" +
		"  })\n" +
		"}\n"
	assert.Equal(t, want, files["user.ts"])
	assert.Equal(t, generatedHeader+"export * as user from './user'\n", files["index.ts"])
}

func TestRenderTypings(t *testing.T) {
	files := render(t, usersResult(), RenderOptions{Scope: "petstore"})

	wantGroup := generatedHeader +
		"declare namespace API {\n" +
		"  namespace Petstore {\n" +
		"    namespace User {\n" +
		"      interface GetUsersPath {\n" +
		"        id: number;\n" +
		"      }\n" +
		"\n" +
		"      interface GetUsersQuery {\n" +
		"        page?: number;\n" +
		"      }\n" +
		"\n" +
		"      type GetUsersResponse = API.Petstore.User;\n" +
		"    }\n" +
		"  }\n" +
		"}\n"
	assert.Equal(t, wantGroup, files["typings/user.d.ts"])

	wantIndex := generatedHeader +
		"declare namespace API {\n" +
		"  namespace Petstore {\n" +
		"    /**\n" +
		"     * a user\n" +
		"     */\n" +
		"    interface User {\n" +
		"      name?: string;\n" +
		"    }\n" +
		"  }\n" +
		"}\n"
	assert.Equal(t, wantIndex, files["typings/index.d.ts"])
}

func envelopeResult() *translate.Result {
	return &translate.Result{
		Groups: []*translate.Group{{
			Tag: "main",
			Items: []*translate.RequestItem{
				{Name: "getFoo", URL: "/foo", Method: "get", ResponseType: "Foo"},
				{Name: "getBar", URL: "/bar", Method: "get", ResponseType: "Bar[]"},
			},
		}},
		RefTypes: []translate.RefType{{Name: "Foo", Expr: "'a' | 'b'"}},
		Refs:     map[string]bool{"Foo": true, "Bar": true},
	}
}

var envelope = []EnvelopeField{{"code", "number"}, {"message", "string"}, {"data", "T"}}

func TestRenderEnvelopeAtTypeLevel(t *testing.T) {
	files := render(t, envelopeResult(), RenderOptions{Scope: "demo", ResponseRoot: envelope})

	assert.Contains(t, files["typings/main.d.ts"], "type GetFooResponse = ResponseROOT<API.Demo.Foo>;")
	assert.Contains(t, files["typings/main.d.ts"], "type GetBarResponse = ResponseROOT<Bar[]>;")
	assert.Contains(t, files["main.ts"], "return request<API.Demo.Main.GetFooResponse>({")
	assert.Contains(t, files["typings/index.d.ts"],
		"    interface ResponseROOT<T = any> {\n"+
			"      code: number;\n"+
			"      message: string;\n"+
			"      data: T;\n"+
			"    }\n"+
			"\n"+
			"    type Foo = 'a' | 'b';\n")
}

func TestRenderEnvelopeReturnPath(t *testing.T) {
	files := render(t, envelopeResult(), RenderOptions{Scope: "demo", ResponseRoot: envelope, ReturnPath: "data"})

	assert.Contains(t, files["typings/main.d.ts"], "type GetFooResponse = API.Demo.Foo;")
	assert.NotContains(t, files["typings/main.d.ts"], "ResponseROOT")
	assert.Contains(t, files["main.ts"], "return request<API.Demo.ResponseROOT<API.Demo.Main.GetFooResponse>>({")
	assert.Contains(t, files["main.ts"], "  }).then((res) => res.data)\n")
}

func TestRenderBodiesAndSSR(t *testing.T) {
	res := &translate.Result{
		Groups: []*translate.Group{{
			Tag: "pet-store",
			Items: []*translate.RequestItem{
				{
					Name: "postUpload", URL: "/upload", Method: "post",
					BodyType: "FormData | {\n  file: File;\n}", IsFormData: true,
				},
				{
					Name: "putPet", URL: "/v2/pets/{pet-id}", Method: "put", Deprecated: true,
					PathType: "{\n  'pet-id': string;\n}", PathKeys: map[string]string{"pet-id": "'pet-id'"},
					BodyType: "Pet",
				},
				{Name: "getSearch", URL: "/search", Method: "get", BodyType: "{\n  q: string;\n}"},
			},
		}},
		Refs: map[string]bool{"Pet": true},
	}
	files := render(t, res, RenderOptions{Scope: "demo", RemoveURLPrefix: "/v2", SSR: SSR{Methods: []string{"POST"}}})
	module := files["pet-store.ts"]

	assert.Contains(t, module, "import type { RequestConfig, RequestContext } from '@/utils/request'\n")
	assert.Contains(t, module, "export function postUpload(formData: API.Demo.PetStore.PostUploadBody, config?: RequestConfig) {\n")
	assert.Contains(t, module, "    formData: formData,\n")
	assert.Contains(t, module, "export function postUploadSSR(ctx: RequestContext, formData: API.Demo.PetStore.PostUploadBody, config?: RequestConfig) {\n"+
		"  return request({\n"+
		"    ctx,\n"+
		"    method: 'POST',\n")

	assert.Contains(t, module, "/**\n * @deprecated\n */\nexport function putPet(path: API.Demo.PetStore.PutPetPath, body: API.Demo.PetStore.PutPetBody, config?: RequestConfig) {\n")
	assert.Contains(t, module, "    url: `/pets/${path['pet-id']}`,\n    data: body,\n")
	assert.NotContains(t, module, "putPetSSR")

	assert.Contains(t, module, "export function getSearch(config?: RequestConfig) {\n", "GET never sends a body")

	typings := files["typings/pet-store.d.ts"]
	assert.Contains(t, typings, "      type PostUploadBody = FormData | {\n        file: File;\n      };\n")
	assert.Contains(t, typings, "      type PutPetBody = API.Demo.Pet;\n")
	assert.Contains(t, typings, "      interface GetSearchBody {\n")
	assert.Contains(t, files["index.ts"], "export * as petStore from './pet-store'\n")
}

func TestRenderDedupesModuleNames(t *testing.T) {
	res := &translate.Result{Groups: []*translate.Group{
		{Tag: "Pet", Items: []*translate.RequestItem{{Name: "getA", URL: "/a", Method: "get"}}},
		{Tag: "pet", Items: []*translate.RequestItem{{Name: "getB", URL: "/b", Method: "get"}}},
	}}
	files := render(t, res, RenderOptions{Scope: "demo"})
	assert.Contains(t, files, "pet.ts")
	assert.Contains(t, files, "pet-2.ts")
	assert.Contains(t, files["typings/pet-2.d.ts"], "namespace Pet2 {")
}

func TestRenderRequiresScope(t *testing.T) {
	_, err := Render(&translate.Result{}, RenderOptions{Scope: "--"})
	require.Error(t, err)
}

func TestSSREnabled(t *testing.T) {
	assert.True(t, SSR{All: true}.Enabled("delete"))
	assert.True(t, SSR{Methods: []string{"GET"}}.Enabled("get"))
	assert.False(t, SSR{Methods: []string{"get"}}.Enabled("post"))
	assert.False(t, SSR{}.Enabled("get"))
}

func TestRenderPlaceholdersWithoutPathKeys(t *testing.T) {
	res := &translate.Result{Groups: []*translate.Group{{
		Tag: "Pet",
		Items: []*translate.RequestItem{
			{Name: "getPet", URL: "/pets/{id}", Method: "get", PathType: "{ id: number }"},
			{Name: "getTag", URL: "/pets/{pet-id}/tags/{tagId}", Method: "get", PathType: "Tags", PathKeys: map[string]string{"tagId": "tagId"}},
			{Name: "getRaw", URL: "/raw/{id}", Method: "get"},
		},
	}}}
	module := render(t, res, RenderOptions{Scope: "demo"})["pet.ts"]

	assert.Contains(t, module, "    url: `/pets/${path.id}`,\n")
	assert.Contains(t, module, "    url: `/pets/${path['pet-id']}/tags/${path.tagId}`,\n")
	assert.Contains(t, module, "    url: `/raw/{id}`,\n", "without a path type the URL is left alone")
}
