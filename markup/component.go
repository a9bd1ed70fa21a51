package markup

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"transitmap/scene"
)

// DefaultVariant is the key of a variant declared without discriminators.
const DefaultVariant = "default"

type variant struct {
	key   string
	pairs [][2]string
	node  Node
}

// Component is a parsed template: default props plus one or more variants.
type Component struct {
	name           string
	defaults       Props
	variants       []variant
	discriminators []string
	engine         *Engine
}

// Name returns the name the component was parsed under.
func (c *Component) Name() string { return c.name }

// Defaults returns a copy of the component's default props.
func (c *Component) Defaults() Props { return Props{}.Merge(c.defaults) }

// VariantKeys returns the variant keys in declaration order.
func (c *Component) VariantKeys() []string {
	keys := make([]string, len(c.variants))
	for i, v := range c.variants {
		keys[i] = v.key
	}
	return keys
}

// Discriminators returns the prop names used by variant keys, in the order
// they were first declared.
func (c *Component) Discriminators() []string {
	return slices.Clone(c.discriminators)
}

func (c *Component) isDiscriminator(name string) bool {
	return slices.Contains(c.discriminators, name)
}

// Key builds the variant key for a selector. Declared discriminators come
// first in declaration order, any other names follow sorted.
func (c *Component) Key(selector map[string]string) string {
	var pairs [][2]string
	for _, d := range c.discriminators {
		if v, ok := selector[d]; ok {
			pairs = append(pairs, [2]string{d, v})
		}
	}
	var extra []string
	for k := range selector {
		if !c.isDiscriminator(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		pairs = append(pairs, [2]string{k, selector[k]})
	}
	return variantKey(pairs)
}

func variantKey(pairs [][2]string) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p[0] + ":" + p[1]
	}
	return strings.Join(parts, ",")
}

// matches reports whether the variant declares exactly the selector's pairs.
func (v variant) matches(selector map[string]string) bool {
	if v.key == DefaultVariant || len(v.pairs) != len(selector) {
		return false
	}
	for _, p := range v.pairs {
		if got, ok := selector[p[0]]; !ok || got != p[1] {
			return false
		}
	}
	return true
}

// covers reports whether every selector pair is declared by the variant.
func (v variant) covers(selector map[string]string) bool {
	for k, want := range selector {
		found := false
		for _, p := range v.pairs {
			if p[0] == k {
				found = p[1] == want
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *Component) exact(selector map[string]string) (variant, bool) {
	for _, v := range c.variants {
		if v.matches(selector) {
			return v, true
		}
	}
	return variant{}, false
}

func (c *Component) byKey(key string) (variant, bool) {
	for _, v := range c.variants {
		if v.key == key {
			return v, true
		}
	}
	return variant{}, false
}

// Variant returns the root node of the variant that exactly matches the
// selector.
func (c *Component) Variant(selector map[string]string) (Node, error) {
	v, ok := c.exact(selector)
	if !ok {
		return nil, fmt.Errorf("component %s: variant %q: %w", c.name, c.Key(selector), ErrVariantNotFound)
	}
	return v.node, nil
}

// resolveImported picks a variant for an import, which may supply only some
// discriminators or none.
func (c *Component) resolveImported(selector map[string]string) (variant, error) {
	if v, ok := c.exact(selector); ok {
		return v, nil
	}
	if len(selector) > 0 {
		var candidates []variant
		for _, v := range c.variants {
			if v.key != DefaultVariant && v.covers(selector) {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 1 {
			return candidates[0], nil
		}
	}
	for _, key := range []string{"", DefaultVariant} {
		if v, ok := c.byKey(key); ok {
			return v, nil
		}
	}
	if len(c.variants) > 0 {
		return c.variants[0], nil
	}
	return variant{}, fmt.Errorf("component %s: %w", c.name, ErrVariantNotFound)
}

// Render builds the variant selected by selector with props layered over the
// component defaults. Attributes are set when the result is applied.
func (c *Component) Render(doc *scene.Document, props Props, selector map[string]string) (*Result, error) {
	v, ok := c.exact(selector)
	if !ok {
		return nil, fmt.Errorf("component %s: variant %q: %w", c.name, c.Key(selector), ErrVariantNotFound)
	}
	b := &builder{doc: doc, engine: c.engine, component: c.name}
	return b.build(v.node, c.defaults.Merge(props))
}

// RenderNode builds, applies, and returns the node of the selected variant.
func (c *Component) RenderNode(ctx context.Context, doc *scene.Document, props Props, selector map[string]string) (*scene.Node, error) {
	res, err := c.Render(doc, props, selector)
	if err != nil {
		return nil, err
	}
	return res.IntoNode(ctx)
}
