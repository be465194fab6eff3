// Package jsontype infers TypeScript type expressions from concrete JSON
// values and parses JSON text into order-preserving yaml.Node trees.
package jsontype

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"
)

// LooksLikeJSON reports whether data starts, after whitespace, with an object
// or array opener.
func LooksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Parse decodes JSON text into a yaml.Node tree, keeping object members in
// their textual order. The result is the value node itself, not a document node.
func Parse(data []byte) (*yaml.Node, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	node, err := readNode(dec)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse json: unexpected data after top-level value")
	}
	return node, nil
}

func readNode(dec *jsontext.Decoder) (*yaml.Node, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	switch tok.Kind() {
	case '{':
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for dec.PeekKind() != '}' {
			key, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			// A token is only valid until the next decoder call.
			name := key.String()
			val, err := readNode(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, scalar("!!str", name), val)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return n, nil
	case '[':
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for dec.PeekKind() != ']' {
			val, err := readNode(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, val)
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		return n, nil
	case '"':
		return scalar("!!str", tok.String()), nil
	case '0':
		raw := tok.String()
		if bytes.ContainsAny([]byte(raw), ".eE") {
			return scalar("!!float", raw), nil
		}
		return scalar("!!int", raw), nil
	case 't':
		return scalar("!!bool", "true"), nil
	case 'f':
		return scalar("!!bool", "false"), nil
	case 'n':
		return scalar("!!null", "null"), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// ParseAny decodes JSON or YAML text into a value node. JSON goes through
// Parse; anything else through yaml.v3.
func ParseAny(data []byte) (*yaml.Node, error) {
	if LooksLikeJSON(data) {
		if n, err := Parse(data); err == nil {
			return n, nil
		}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	return &doc, nil
}
