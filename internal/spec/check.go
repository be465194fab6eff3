package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/swagger2ts/internal/jsontype"
	"gopkg.in/yaml.v3"
)

// Check runs kin-openapi validation over the raw document and returns what it
// finds. Findings are advisory: generation never depends on them.
func Check(ctx context.Context, src *Source) []*SpecError {
	if src == nil || src.Doc == nil {
		return nil
	}
	data, err := toJSON(src.Raw)
	if err != nil {
		return []*SpecError{{Code: ParseError, Message: err.Error(), Location: src.Location, Cause: err}}
	}

	var doc *openapi3.T
	if src.Doc.Dialect == DialectV2 {
		var v2 openapi2.T
		if err := json.Unmarshal(data, &v2); err != nil {
			return []*SpecError{mapValidateOrParseErr(err, src.Location)}
		}
		doc, err = openapi2conv.ToV3(&v2)
		if err != nil {
			return []*SpecError{{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: src.Location, Cause: err}}
		}
	} else {
		loader := openapi3.NewLoader()
		doc, err = loader.LoadFromData(data)
		if err != nil {
			return []*SpecError{mapValidateOrParseErr(err, src.Location)}
		}
	}

	err = doc.Validate(ctx)
	if err == nil {
		return nil
	}
	var me openapi3.MultiError
	if errors.As(err, &me) {
		out := make([]*SpecError, 0, len(me))
		for _, e := range me {
			out = append(out, mapValidateOrParseErr(e, src.Location))
		}
		return out
	}
	return []*SpecError{mapValidateOrParseErr(err, src.Location)}
}

// toJSON re-encodes JSON or YAML text as JSON with string keys only, which
// is what the kin-openapi decoders expect.
func toJSON(raw []byte) ([]byte, error) {
	root, err := jsontype.ParseAny(raw)
	if err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	v, err := plain(root, map[*yaml.Node]bool{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func plain(n *yaml.Node, active map[*yaml.Node]bool) (any, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		if active[n] {
			return nil, fmt.Errorf("%w at line %d", ErrAliasCycle, n.Line)
		}
		active[n] = true
		defer delete(active, n)
	}
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := plain(n.Content[i+1], active)
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := plain(c, active)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, nil
}

func mapValidateOrParseErr(err error, location string) *SpecError {
	pointer := extractJSONPointer(err)
	code := ValidationError
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "parse") || strings.Contains(lower, "invalid character") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
