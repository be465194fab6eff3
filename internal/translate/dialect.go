package translate

import (
	"github.com/mark3labs/swagger2ts/internal/jsontype"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"gopkg.in/yaml.v3"
)

// dialect is what differs between Swagger v2 and OpenAPI v3 translation.
type dialect interface {
	// permissive enables the file type, item sequences read as unions, and
	// parameters read as their own schema.
	permissive() bool
	paramSchema(param *spec.Parameter) *spec.Node
	requestBody(p *pass, ri *RequestItem, op *spec.Operation)
	response(r *spec.Response) (*spec.Node, *yaml.Node)
	// additional renders a schema-valued additionalProperties extension.
	additional(p *pass, n *spec.Node) string
}

type v2Dialect struct{}

func (v2Dialect) permissive() bool { return true }

func (v2Dialect) paramSchema(param *spec.Parameter) *spec.Node {
	if param.Schema != nil {
		return param.Schema
	}
	return param.Self
}

// requestBody is a no-op: v2 bodies arrive as body and formData parameters.
func (v2Dialect) requestBody(*pass, *RequestItem, *spec.Operation) {}

func (v2Dialect) response(r *spec.Response) (*spec.Node, *yaml.Node) {
	return r.Schema, r.Example
}

// additional intersects only the nested properties of the node.
func (v2Dialect) additional(p *pass, n *spec.Node) string {
	if n == nil || n.IsRef() || n.Schema == nil || len(n.Schema.Properties) == 0 {
		return ""
	}
	return naming.Record(p.properties(n.Schema))
}

type v3Dialect struct{}

func (v3Dialect) permissive() bool { return false }

func (v3Dialect) paramSchema(param *spec.Parameter) *spec.Node { return param.Schema }

const (
	mimeJSON      = "application/json"
	mimeMultipart = "multipart/form-data"
	mimeForm      = "application/x-www-form-urlencoded"
)

func (v3Dialect) requestBody(p *pass, ri *RequestItem, op *spec.Operation) {
	rb := op.RequestBody
	if rb == nil {
		return
	}
	if rb.Ref != "" {
		p.t.log.Warn("TODO: referenced request bodies are not supported, skipping",
			"ref", rb.Ref, "method", op.Method, "url", ri.URL)
		return
	}
	media, form := pickBodyMedia(rb.Content)
	if media == nil {
		return
	}
	expr := p.schema(media.Schema)
	if expr == "" && media.Example != nil {
		expr = p.infer(media.Example, ri)
	}
	if expr == "" {
		return
	}
	if form {
		ri.IsFormData = true
		expr = "FormData | " + expr
	}
	ri.BodyType = expr
}

func pickBodyMedia(content []*spec.Media) (media *spec.Media, form bool) {
	if m := mediaFor(content, mimeJSON); m != nil {
		return m, false
	}
	if m := mediaFor(content, mimeMultipart); m != nil {
		return m, true
	}
	if m := mediaFor(content, mimeForm); m != nil {
		return m, true
	}
	if len(content) > 0 {
		return content[0], false
	}
	return nil, false
}

func mediaFor(content []*spec.Media, mime string) *spec.Media {
	for _, m := range content {
		if m.Mime == mime {
			return m
		}
	}
	return nil
}

func (v3Dialect) response(r *spec.Response) (*spec.Node, *yaml.Node) {
	m := mediaFor(r.Content, mimeJSON)
	if m == nil && len(r.Content) > 0 {
		m = r.Content[0]
	}
	if m == nil {
		return nil, nil
	}
	return m.Schema, m.Example
}

// additional intersects the full translation of the node.
func (v3Dialect) additional(p *pass, n *spec.Node) string {
	return p.schema(n)
}

func (p *pass) response(ri *RequestItem, op *spec.Operation) string {
	r := op.Responses["200"]
	if r == nil {
		return ""
	}
	node, example := p.t.dialect.response(r)
	if expr := p.schema(node); expr != "" {
		return expr
	}
	if example != nil {
		return p.infer(example, ri)
	}
	return ""
}

func (p *pass) infer(example *yaml.Node, ri *RequestItem) string {
	expr, err := jsontype.Infer(example)
	if err != nil {
		p.t.log.Warn("cannot infer type from example", "method", ri.Method, "url", ri.URL, "err", err)
		return ""
	}
	return expr
}
