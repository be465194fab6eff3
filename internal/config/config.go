// Package config reads the generator configuration file and holds the hooks
// that can only be set from Go.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/swagger2ts/internal/naming"
	"github.com/mark3labs/swagger2ts/internal/spec"
	"github.com/mark3labs/swagger2ts/internal/translate"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoDocuments is returned when nothing is configured to generate.
	ErrNoDocuments = errors.New("config: no documents configured")
	// ErrInvalid wraps every other validation failure.
	ErrInvalid = errors.New("config: invalid configuration")
)

// DefaultOut is the output root when none is configured.
const DefaultOut = "./src/services"

// File is the whole configuration.
type File struct {
	Out       string     `yaml:"out"`
	Force     bool       `yaml:"force"`
	DryRun    bool       `yaml:"dryRun"`
	Verbose   bool       `yaml:"verbose"`
	Documents []Document `yaml:"documents" validate:"dive"`
}

// Document configures the generation of one API document.
type Document struct {
	Name                     string            `yaml:"name" validate:"required"`
	Input                    string            `yaml:"input" validate:"required"`
	Include                  []string          `yaml:"include"`
	Exclude                  []string          `yaml:"exclude"`
	URLPrefix                string            `yaml:"urlPrefix"`
	RemoveURLPrefix          string            `yaml:"removeUrlPrefix"`
	RequestImport            string            `yaml:"requestImport"`
	ResponseRootInterface    Envelope          `yaml:"responseRootInterface"`
	CustomResponseReturnPath string            `yaml:"customResponseReturnPath"`
	SSR                      SSR               `yaml:"ssr"`
	Validate                 bool              `yaml:"validate"`
	Headers                  map[string]string `yaml:"headers"`
	// ManualTypes is keyed by URL, method, then type slot. A string value is
	// a type expression; any other value is a sample to infer from.
	ManualTypes map[string]map[string]map[string]yaml.Node `yaml:"manualTypes"`

	PropKeyReplacer   func(key string, kc naming.KeyContext) string       `yaml:"-"`
	URLToNameReplacer func(url string) string                             `yaml:"-"`
	GetTag            func(url, method string, op *spec.Operation) string `yaml:"-"`
	// ManualFuncs are merged over ManualTypes.
	ManualFuncs map[string]map[string]translate.Overrides `yaml:"-"`
}

// Field is one envelope member.
type Field struct {
	Name string
	Type string
}

// Envelope keeps the declared member order of responseRootInterface.
type Envelope []Field

func (e *Envelope) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: responseRootInterface must be a mapping of field to type", n.Line)
	}
	out := make(Envelope, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode || strings.TrimSpace(v.Value) == "" {
			return fmt.Errorf("line %d: responseRootInterface.%s must be a type expression", v.Line, k.Value)
		}
		out = append(out, Field{Name: k.Value, Type: v.Value})
	}
	*e = out
	return nil
}

// SSR is either a boolean or a list of methods.
type SSR struct {
	All     bool
	Methods []string `validate:"dive,oneof=get put post delete options head patch trace"`
}

func (s *SSR) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var all bool
		if err := n.Decode(&all); err != nil {
			return fmt.Errorf("line %d: ssr must be a boolean or a list of methods", n.Line)
		}
		*s = SSR{All: all}
		return nil
	case yaml.SequenceNode:
		var methods []string
		if err := n.Decode(&methods); err != nil {
			return fmt.Errorf("line %d: ssr: %w", n.Line, err)
		}
		*s = SSR{Methods: methods}
		return nil
	}
	return fmt.Errorf("line %d: ssr must be a boolean or a list of methods", n.Line)
}

// Load reads a YAML or JSON configuration file. Unknown fields are rejected.
// Callers apply their overrides, then Normalize and Validate.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return f, nil
}

// Parse decodes configuration text without validating it.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &f, nil
}

// Normalize trims values, drops empty or duplicate tags and lower-cases SSR
// methods.
func (f *File) Normalize() {
	f.Out = strings.TrimSpace(f.Out)
	if f.Out == "" {
		f.Out = DefaultOut
	}
	for i := range f.Documents {
		d := &f.Documents[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Input = strings.TrimSpace(d.Input)
		d.Include = SanitizeTags(d.Include)
		d.Exclude = SanitizeTags(d.Exclude)
		for j, m := range d.SSR.Methods {
			d.SSR.Methods[j] = strings.ToLower(strings.TrimSpace(m))
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Validate checks the normalized configuration.
func (f *File) Validate() error {
	if len(f.Documents) == 0 {
		return ErrNoDocuments
	}
	var errs []error
	if err := validate.Struct(f); err != nil {
		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			return err
		}
		for _, ve := range valErrs {
			field := strings.TrimPrefix(ve.Namespace(), "File.")
			errs = append(errs, fmt.Errorf("%w: %s %s", ErrInvalid, field, formatValidationError(ve)))
		}
	}

	dirs := map[string]string{}
	for i, d := range f.Documents {
		if d.Name != "" {
			dir := naming.Kebab(d.Name)
			if prev, ok := dirs[dir]; ok {
				errs = append(errs, fmt.Errorf("%w: documents[%d].name %q writes to the same directory as %q", ErrInvalid, i, d.Name, prev))
			}
			dirs[dir] = d.Name
			if naming.Pascal(d.Name) == "" {
				errs = append(errs, fmt.Errorf("%w: documents[%d].name %q has no letters or digits", ErrInvalid, i, d.Name))
			}
		}
		if overlap := intersect(d.Include, d.Exclude); len(overlap) > 0 {
			errs = append(errs, fmt.Errorf("%w: documents[%d] include/exclude tags overlap: %s", ErrInvalid, i, strings.Join(overlap, ", ")))
		}
		for url, methods := range d.ManualTypes {
			for method, fields := range methods {
				for field := range fields {
					if !validSlot(field) {
						errs = append(errs, fmt.Errorf("%w: documents[%d].manualTypes[%s][%s]: unknown type slot %q (allowed: path, query, body, response)", ErrInvalid, i, url, method, field))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validSlot(field string) bool {
	switch translate.Field(field) {
	case translate.FieldPath, translate.FieldQuery, translate.FieldBody, translate.FieldResponse:
		return true
	}
	return false
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// Overrides merges the file overrides with the Go ones.
func (d *Document) Overrides() map[string]map[string]translate.Overrides {
	if len(d.ManualTypes) == 0 && len(d.ManualFuncs) == 0 {
		return nil
	}
	out := map[string]map[string]translate.Overrides{}
	slot := func(url, method string) translate.Overrides {
		if out[url] == nil {
			out[url] = map[string]translate.Overrides{}
		}
		method = strings.ToLower(method)
		if out[url][method] == nil {
			out[url][method] = translate.Overrides{}
		}
		return out[url][method]
	}
	for url, methods := range d.ManualTypes {
		for method, fields := range methods {
			ovs := slot(url, method)
			for field, node := range fields {
				if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
					ovs[translate.Field(field)] = translate.Literal(node.Value)
				} else {
					ovs[translate.Field(field)] = translate.Data{Value: &node}
				}
			}
		}
	}
	for url, methods := range d.ManualFuncs {
		for method, fields := range methods {
			ovs := slot(url, method)
			for field, o := range fields {
				ovs[field] = o
			}
		}
	}
	return out
}

// SanitizeTags trims tags and drops empty and duplicate entries.
func SanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[strings.ToUpper(item)] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[strings.ToUpper(item)]; ok {
			result = append(result, item)
		}
	}
	return result
}
