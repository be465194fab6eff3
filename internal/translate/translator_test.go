package translate

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, doc string, opts Options) (*Result, error) {
	t.Helper()
	d, err := spec.Decode([]byte(strings.TrimSpace(doc)))
	require.NoError(t, err)
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return New(d, opts).Parse(context.Background())
}

func mustParse(t *testing.T, doc string, opts Options) *Result {
	t.Helper()
	res, err := parse(t, doc, opts)
	require.NoError(t, err)
	return res
}

func onlyItem(t *testing.T, res *Result) *RequestItem {
	t.Helper()
	require.Len(t, res.Groups, 1)
	require.Len(t, res.Groups[0].Items, 1)
	return res.Groups[0].Items[0]
}

const usersV3 = `
openapi: 3.0.0
info: {title: Users, version: "1"}
paths:
  /users/{id}:
    get:
      parameters:
        - {name: id, in: path, schema: {type: integer}}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/User'}
components:
  schemas:
    User:
      type: object
      properties:
        name: {type: string}
`

func TestParseV3SimpleGet(t *testing.T) {
	res := mustParse(t, usersV3, Options{})
	item := onlyItem(t, res)

	assert.Equal(t, DefaultTag, item.Tag)
	assert.Equal(t, "getUsers", item.Name)
	assert.Equal(t, "get", item.Method)
	assert.Equal(t, "/users/{id}", item.URL)
	assert.Equal(t, "{\n  id: number;\n}", item.PathType)
	assert.Equal(t, map[string]string{"id": "id"}, item.PathKeys)
	assert.Empty(t, item.QueryType)
	assert.Empty(t, item.BodyType)
	assert.Equal(t, "User", item.ResponseType)

	require.Len(t, res.RefTypes, 1)
	assert.Equal(t, "User", res.RefTypes[0].Name)
	assert.Equal(t, "{\n  name?: string;\n}", res.RefTypes[0].Expr)
}

const sharedRefsV3 = `
openapi: 3.0.0
paths:
  /users:
    get:
      tags: [User]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {type: array, items: {$ref: '#/components/schemas/User'}}
    post:
      tags: [User]
      requestBody:
        content:
          application/json:
            schema: {$ref: '#/components/schemas/User'}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/User'}
  /users/{id}:
    get:
      tags: [User]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/api.User'}
components:
  schemas:
    User:
      type: object
      properties:
        friends: {type: array, items: {$ref: '#/components/schemas/User'}}
        pet: {$ref: '#/components/schemas/Pet'}
    Pet:
      type: object
      properties:
        owner: {$ref: '#/components/schemas/User'}
`

func TestParseDedupsReferencesAcrossOperations(t *testing.T) {
	res := mustParse(t, sharedRefsV3, Options{})
	require.Len(t, res.Groups, 1)
	items := res.Groups[0].Items
	require.Len(t, items, 3)

	assert.Equal(t, []string{"getUsers", "postUsers", "getUsers2"},
		[]string{items[0].Name, items[1].Name, items[2].Name})
	assert.Equal(t, "User[]", items[0].ResponseType)
	assert.Equal(t, "User", items[1].BodyType)
	assert.False(t, items[1].IsFormData)
	assert.Equal(t, "User", items[2].ResponseType, "api. prefix formats to the same name")

	assert.Equal(t, map[string]bool{"User": true, "Pet": true}, res.Refs)
	require.Len(t, res.RefTypes, len(res.Refs))
	assert.Equal(t, "Pet", res.RefTypes[0].Name)
	assert.Equal(t, "{\n  owner?: User;\n}", res.RefTypes[0].Expr)
	assert.Equal(t, "User", res.RefTypes[1].Name)
	assert.Equal(t, "{\n  friends?: User[];\n  pet?: Pet;\n}", res.RefTypes[1].Expr)
}

const uploadV2 = `
swagger: "2.0"
paths:
  /upload:
    post:
      tags: [file]
      consumes: [multipart/form-data]
      parameters:
        - {name: file, in: formData, type: file, required: true}
        - {name: note, in: formData, type: string, description: free text}
      responses:
        200: {description: ok}
`

func TestParseV2FormData(t *testing.T) {
	item := onlyItem(t, mustParse(t, uploadV2, Options{}))
	assert.Equal(t, "postUpload", item.Name)
	assert.True(t, item.IsFormData)
	assert.True(t, strings.HasPrefix(item.BodyType, "FormData | {"))
	assert.Equal(t, "FormData | {\n  file: File;\n  note?: string; // free text\n}", item.BodyType)
	assert.Empty(t, item.ResponseType)
}

const petsV2 = `
swagger: "2.0"
paths:
  /pets/{petId}:
    parameters:
      - {name: petId, in: path, type: string}
    put:
      tags: [pet]
      operationId: pet_putPet
      parameters:
        - {name: root, in: body, schema: {$ref: '#/definitions/Pet'}}
        - {name: dryRun, in: query, type: boolean, required: true}
        - {name: X-Trace, in: header, type: string}
        - $ref: '#/parameters/trace'
      responses:
        200:
          description: ok
          examples:
            application/json: {id: 7, tags: [a]}
    post:
      tags: [pet]
      parameters:
        - {name: body, in: body, required: true, schema: {$ref: '#/definitions/Pet'}}
        - {name: tags, in: query, type: array, items: {type: string}}
      responses:
        200:
          description: ok
          schema: {$ref: '#/definitions/Pet'}
    x-extension: {foo: bar}
definitions:
  Pet:
    type: object
    required: [id]
    properties:
      id: {type: integer, format: int64}
`

func TestParseV2BodiesAndParameters(t *testing.T) {
	res := mustParse(t, petsV2, Options{})
	require.Len(t, res.Groups, 1)
	items := res.Groups[0].Items
	require.Len(t, items, 2, "non-verb keys are skipped")

	put := items[0]
	assert.Equal(t, "putPet", put.Name)
	assert.Equal(t, "{\n  petId: string;\n}", put.PathType)
	assert.Equal(t, "{\n  dryRun: boolean;\n}", put.QueryType)
	assert.True(t, put.QueryRequired)
	assert.Equal(t, "Pet", put.BodyType, "a root body parameter is the whole body")
	assert.False(t, put.IsFormData)
	assert.Equal(t, "{\n  id: number;\n  tags: string[];\n}", put.ResponseType, "inferred from the example")

	post := items[1]
	assert.Equal(t, "postPets", post.Name)
	assert.Equal(t, "{\n  body: Pet;\n}", post.BodyType)
	assert.Equal(t, "{\n  tags?: string[];\n}", post.QueryType)
	assert.False(t, post.QueryRequired)
	assert.Equal(t, "Pet", post.ResponseType)
}

func TestParseV3FormBodies(t *testing.T) {
	res := mustParse(t, `
openapi: 3.0.0
paths:
  /avatar:
    put:
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              properties:
                file: {type: string, format: binary}
      responses: {}
  /login:
    post:
      requestBody:
        content:
          text/plain:
            schema: {type: string}
  /shared:
    post:
      requestBody: {$ref: '#/components/requestBodies/Shared'}
`, Options{})
	items := res.Groups[0].Items
	require.Len(t, items, 3)

	assert.True(t, items[0].IsFormData)
	assert.Equal(t, "FormData | {\n  file?: string;\n}", items[0].BodyType)
	assert.False(t, items[1].IsFormData)
	assert.Equal(t, "string", items[1].BodyType)
	assert.Empty(t, items[2].BodyType, "referenced request bodies are skipped")
}

func TestParseTagFilter(t *testing.T) {
	doc := `
openapi: 3.0.0
paths:
  /pets:
    get: {tags: [Pet]}
  /orders:
    get: {tags: [store]}
  /misc:
    get: {}
`
	tags := func(res *Result) []string {
		var out []string
		for _, g := range res.Groups {
			out = append(out, g.Tag)
		}
		return out
	}
	assert.Equal(t, []string{"Pet", "store", "main"}, tags(mustParse(t, doc, Options{})))
	assert.Equal(t, []string{"Pet"}, tags(mustParse(t, doc, Options{Include: []string{"PET"}})))
	assert.Equal(t, []string{"Pet", "main"}, tags(mustParse(t, doc, Options{Exclude: []string{"Store"}})))
}

func TestParseHooks(t *testing.T) {
	var gotURL string
	res := mustParse(t, `
openapi: 3.0.0
paths:
  /api/v1/orders/{orderId}:
    get:
      parameters:
        - {name: orderId, in: path, schema: {type: string}}
`, Options{
		RemoveURLPrefix: "/api/v1",
		GetTag: func(url, method string, op *spec.Operation) string {
			gotURL = url
			return "Orders"
		},
		URLToNameReplacer: func(url string) string { return "order detail " + url[len("/orders/"):] },
		PropKeyReplacer: func(key string, kc naming.KeyContext) string {
			if kc == naming.KeyParam {
				return strings.ToUpper(key)
			}
			return key
		},
	})
	item := onlyItem(t, res)
	assert.Equal(t, "/orders/{orderId}", gotURL)
	assert.Equal(t, "Orders", item.Tag)
	assert.Equal(t, "getOrderDetail", item.Name)
	assert.Equal(t, "/api/v1/orders/{orderId}", item.URL)
	assert.Equal(t, "{\n  ORDERID: string;\n}", item.PathType)
	assert.Equal(t, map[string]string{"orderId": "ORDERID"}, item.PathKeys)
}

func TestParseSkipsReferencedParameters(t *testing.T) {
	item := onlyItem(t, mustParse(t, `
openapi: 3.0.0
paths:
  /search:
    get:
      parameters:
        - $ref: '#/components/parameters/limit'
        - {name: q, in: query, schema: {type: string}, deprecated: true, description: search text}
`, Options{}))
	assert.Equal(t, "{\n  /** @deprecated */ q?: string; // search text\n}", item.QueryType)
}

func TestParseManualTypes(t *testing.T) {
	var calls atomic.Int32
	res := mustParse(t, usersV3, Options{
		ManualTypes: map[string]map[string]Overrides{
			"/users/{id}": {
				"GET": {
					FieldResponse: Literal("API.Demo.User[]"),
					FieldQuery:    Data{Value: map[string]any{"q": "x", "page": 1}},
					FieldBody: Func(func(_ context.Context, item RequestItem) (any, error) {
						calls.Add(1)
						return item.Name + "Body", nil
					}),
					FieldPath: Func(func(_ context.Context, item RequestItem) (any, error) {
						calls.Add(1)
						assert.Equal(t, "{\n  id: number;\n}", item.PathType, "overrides see the translated item")
						return map[string]any{"id": "abc"}, nil
					}),
				},
			},
		},
	})
	item := onlyItem(t, res)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "API.Demo.User[]", item.ResponseType)
	assert.Equal(t, "{\n  page: number;\n  q: string;\n}", item.QueryType)
	assert.Equal(t, "getUsersBody", item.BodyType)
	assert.Equal(t, "{\n  id: string;\n}", item.PathType)
}

func TestParseManualTypeFailures(t *testing.T) {
	boom := errors.New("boom")
	_, err := parse(t, usersV3, Options{
		ManualTypes: map[string]map[string]Overrides{
			"/users/{id}": {"get": {FieldResponse: Func(func(context.Context, RequestItem) (any, error) {
				return nil, boom
			})}},
		},
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "manual response type for GET /users/{id}")

	_, err = parse(t, usersV3, Options{
		ManualTypes: map[string]map[string]Overrides{
			"/users/{id}": {"get": {FieldQuery: Func(func(context.Context, RequestItem) (any, error) {
				return make(chan int), nil
			})}},
		},
	})
	require.ErrorIs(t, err, ErrUnusableOverride)
}

func TestTagFilterValidate(t *testing.T) {
	tests := []struct {
		name             string
		include, exclude []string
		tag              string
		want             bool
	}{
		{"no lists", nil, nil, "anything", true},
		{"included", []string{"Article"}, nil, "ARTICLE", true},
		{"not included", []string{"article"}, nil, "user", false},
		{"excluded", nil, []string{"ARTICLE"}, "Article", false},
		{"not excluded", nil, []string{"article"}, "user", true},
		{"included and excluded", []string{"article"}, []string{"Article"}, "article", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTagFilter(tt.include, tt.exclude).Validate(tt.tag))
		})
	}
	var nilFilter *TagFilter
	assert.True(t, nilFilter.Validate("x"))
}

func TestNameSetUnique(t *testing.T) {
	s := nameSet{}
	assert.Equal(t, "getUsers", s.unique("getUsers"))
	assert.Equal(t, "getUsers2", s.unique("getUsers"))
	assert.Equal(t, "getUsers3", s.unique("getUsers"))
	assert.Equal(t, "postUsers", s.unique("postUsers"))
}
