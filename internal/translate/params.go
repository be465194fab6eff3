package translate

import (
	"strings"

	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// rootBodyParam is the body parameter name that stands for the whole body
// rather than one field of it.
const rootBodyParam = "root"

type paramBuffers struct {
	path, query, formData, body []string
	root                        string
}

func (p *pass) parameters(ri *RequestItem, op *spec.Operation) {
	var buf paramBuffers
	for _, param := range op.Parameters {
		if param.Ref != "" {
			p.t.log.Warn("TODO: referenced parameters are not supported, skipping",
				"ref", param.Ref, "method", op.Method, "url", ri.URL)
			continue
		}
		switch param.In {
		case "path", "query", "formData", "body":
		default:
			continue
		}
		expr := orAny(p.schema(p.t.dialect.paramSchema(param)))

		if param.In == "body" && param.Name == rootBodyParam {
			if buf.root == "" {
				buf.root = expr
			} else {
				buf.root += " & " + unionMember(expr)
			}
			continue
		}

		key := p.key(param.Name, naming.KeyParam)
		required := param.Required || param.In == "path"
		line := paramLine(key, expr, required, param)
		switch param.In {
		case "path":
			buf.path = append(buf.path, line)
			if ri.PathKeys == nil {
				ri.PathKeys = map[string]string{}
			}
			ri.PathKeys[param.Name] = key
		case "query":
			buf.query = append(buf.query, line)
			ri.QueryRequired = ri.QueryRequired || required
		case "formData":
			buf.formData = append(buf.formData, line)
		case "body":
			buf.body = append(buf.body, line)
		}
	}

	if len(buf.path) > 0 {
		ri.PathType = naming.Record(buf.path)
	}
	if len(buf.query) > 0 {
		ri.QueryType = naming.Record(buf.query)
	}

	var body []string
	if len(buf.formData) > 0 || len(buf.body) > 0 {
		body = append(body, naming.Record(append(buf.formData, buf.body...)))
	}
	switch {
	case buf.root != "" && len(body) > 0:
		body = append(body, unionMember(buf.root))
	case buf.root != "":
		body = append(body, buf.root)
	case len(body) == 0:
		return
	}
	expr := strings.Join(body, " & ")
	if len(buf.formData) > 0 {
		ri.IsFormData = true
		expr = "FormData | " + expr
	}
	ri.BodyType = expr
}

func paramLine(key, expr string, required bool, param *spec.Parameter) string {
	var b strings.Builder
	if param.Deprecated {
		b.WriteString(deprecatedMarker)
	}
	b.WriteString(key)
	if !required {
		b.WriteString("?")
	}
	b.WriteString(": ")
	b.WriteString(expr)
	b.WriteString(";")
	b.WriteString(naming.JoinComment(param.Description))
	return b.String()
}
