package markup

import (
	"context"
	"fmt"

	"transitmap/scene"
)

// Result is a built but not yet styled node. Node exists and is attached to
// its built children; Apply sets attributes.
type Result struct {
	Node     *scene.Node
	apply    func(ctx context.Context) error
	children []*Result
}

func newResult(n *scene.Node, apply func(ctx context.Context) error) *Result {
	return &Result{Node: n, apply: apply}
}

// newFrameResult appends the children's nodes to the frame at build time.
func newFrameResult(frame *scene.Node, apply func(ctx context.Context) error, children []*Result) *Result {
	for _, c := range children {
		frame.AppendChild(c.Node)
	}
	return &Result{Node: frame, apply: apply, children: children}
}

// Apply sets this node's attributes and then those of its children, in
// order.
func (r *Result) Apply(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.apply != nil {
		if err := r.apply(ctx); err != nil {
			return err
		}
	}
	for _, c := range r.children {
		if err := c.Apply(ctx); err != nil {
			return fmt.Errorf("rendering child node %s of frame %s: %w", c.Node.Kind(), r.Node.Name, err)
		}
	}
	return nil
}

// IntoNode applies the result and returns its node.
func (r *Result) IntoNode(ctx context.Context) (*scene.Node, error) {
	if err := r.Apply(ctx); err != nil {
		return nil, err
	}
	return r.Node, nil
}
