package schema

import (
	"fmt"

	"github.com/aidanlsb/munin/internal/model"
)

// Context is the resolved, ordered field set for one scope and one optional
// template. Contexts are built fresh per resolution and never mutate the
// config they came from.
type Context struct {
	Scope    Scope
	Template string

	fields map[string]*FieldSpec
	order  []string
}

// Resolve builds the field context for a scope. Global fields come first in
// declaration order; a template field with the same name replaces the global
// one wholesale, keeping its position; template-only fields append in
// declaration order.
func (c *Config) Resolve(scope Scope, templateID string) (*Context, error) {
	var base map[string]*FieldSpec
	var baseOrder []string
	switch scope {
	case ScopeRecord:
		base, baseOrder = c.RecordFields, c.RecordOrder
	case ScopeNote:
		base, baseOrder = c.NoteFields, c.NoteOrder
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}

	ctx := &Context{
		Scope:    scope,
		Template: templateID,
		fields:   make(map[string]*FieldSpec, len(base)),
	}
	for _, name := range baseOrder {
		ctx.put(name, base[name])
	}

	if templateID != "" {
		t, ok := c.Templates[templateID]
		if !ok {
			return nil, fmt.Errorf("template %q: %w", templateID, ErrTemplateNotFound)
		}
		var overlay map[string]*FieldSpec
		var overlayOrder []string
		switch scope {
		case ScopeRecord:
			overlay, overlayOrder = t.RecordFields, t.RecordOrder
		case ScopeNote:
			overlay, overlayOrder = t.NoteFields, t.NoteOrder
		}
		for _, name := range overlayOrder {
			ctx.put(name, overlay[name])
		}
	}

	return ctx, nil
}

// put inserts or replaces a spec. Replacement keeps the original position.
func (ctx *Context) put(name string, spec *FieldSpec) {
	copied := *spec
	copied.Name = name
	if _, ok := ctx.fields[name]; !ok {
		ctx.order = append(ctx.order, name)
	}
	ctx.fields[name] = &copied
}

// Lookup returns the spec for a field name.
func (ctx *Context) Lookup(name string) (*FieldSpec, bool) {
	spec, ok := ctx.fields[name]
	return spec, ok
}

// Specs returns all specs in resolution order.
func (ctx *Context) Specs() []*FieldSpec {
	out := make([]*FieldSpec, 0, len(ctx.order))
	for _, name := range ctx.order {
		out = append(out, ctx.fields[name])
	}
	return out
}

// Names returns field names in resolution order.
func (ctx *Context) Names() []string {
	out := make([]string, len(ctx.order))
	copy(out, ctx.order)
	return out
}

// Len returns the number of fields in the context.
func (ctx *Context) Len() int { return len(ctx.order) }

// KindOf reports the declared value kind of a field, unioned over the
// global scope and every template. A field declared numeric anywhere is
// treated as numeric for query typing.
func (c *Config) KindOf(scope Scope) func(field string) (model.Kind, bool) {
	kinds := make(map[string]model.Kind)

	collect := func(ctx *Context) {
		for _, spec := range ctx.Specs() {
			if !spec.IsEnabled() {
				continue
			}
			if _, seen := kinds[spec.Name]; !seen || spec.Kind() != model.KindString {
				kinds[spec.Name] = spec.Kind()
			}
		}
	}

	if ctx, err := c.Resolve(scope, ""); err == nil {
		collect(ctx)
	}
	for id := range c.Templates {
		if ctx, err := c.Resolve(scope, id); err == nil {
			collect(ctx)
		}
	}

	return func(field string) (model.Kind, bool) {
		kind, ok := kinds[field]
		return kind, ok
	}
}
