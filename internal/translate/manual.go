package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/jsontype"
	"golang.org/x/sync/errgroup"
)

// ErrUnusableOverride is returned when a manual override yields something
// that is neither a type expression nor an inferable value.
var ErrUnusableOverride = errors.New("unusable manual type override")

// Field names a type slot of a RequestItem.
type Field string

const (
	FieldPath     Field = "path"
	FieldQuery    Field = "query"
	FieldBody     Field = "body"
	FieldResponse Field = "response"
)

// Overrides replaces type slots of one operation.
type Overrides map[Field]Override

// Override produces a replacement type expression.
type Override interface {
	Resolve(ctx context.Context, item RequestItem) (string, error)
}

// Literal is used verbatim.
type Literal string

func (l Literal) Resolve(context.Context, RequestItem) (string, error) { return string(l), nil }

// Data is a sample value whose type is inferred.
type Data struct{ Value any }

func (d Data) Resolve(context.Context, RequestItem) (string, error) {
	return inferOverride(d.Value)
}

// Func computes the override from the item. A string result is a literal;
// anything else is inferred like Data.
type Func func(ctx context.Context, item RequestItem) (any, error)

func (f Func) Resolve(ctx context.Context, item RequestItem) (string, error) {
	v, err := f(ctx, item)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case Literal:
		return string(v), nil
	case Data:
		return inferOverride(v.Value)
	case nil:
		return "", ErrUnusableOverride
	}
	return inferOverride(v)
}

func inferOverride(v any) (string, error) {
	expr, err := jsontype.Infer(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnusableOverride, err)
	}
	return expr, nil
}

type override struct {
	item     RequestItem
	field    Field
	target   *string
	resolver Override
}

// overridesFor snapshots ri and pairs each configured field with the slot it
// replaces.
func (t *Translator) overridesFor(ri *RequestItem) []override {
	byMethod := t.opts.ManualTypes[ri.URL]
	if byMethod == nil {
		return nil
	}
	var ovs Overrides
	for method, o := range byMethod {
		if strings.EqualFold(method, ri.Method) {
			ovs = o
			break
		}
	}
	snapshot := *ri
	var out []override
	for field, resolver := range ovs {
		var target *string
		switch field {
		case FieldPath:
			target = &ri.PathType
		case FieldQuery:
			target = &ri.QueryType
		case FieldBody:
			target = &ri.BodyType
		case FieldResponse:
			target = &ri.ResponseType
		default:
			t.log.Warn("unknown manual type field", "field", field, "method", ri.Method, "url", ri.URL)
			continue
		}
		if resolver == nil {
			continue
		}
		out = append(out, override{item: snapshot, field: field, target: target, resolver: resolver})
	}
	return out
}

// resolveOverrides runs every override concurrently. Each writes only its own
// slot, and all have finished when it returns.
func resolveOverrides(ctx context.Context, ovs []override) error {
	if len(ovs) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, o := range ovs {
		o := o
		g.Go(func() error {
			expr, err := o.resolver.Resolve(ctx, o.item)
			if err != nil {
				return fmt.Errorf("manual %s type for %s %s: %w", o.field, strings.ToUpper(o.item.Method), o.item.URL, err)
			}
			*o.target = expr
			return nil
		})
	}
	return g.Wait()
}
