package markup

// Attributes maps attribute names to their templates.
type Attributes map[string]StringTemplate

// Node is a parsed template element. The set of implementations is closed:
// *Frame, *Text, *Rectangle, *Ellipse, *Polygon and *Import.
type Node interface {
	Tag() string
	Attrs() Attributes
	isNode()
}

type element struct {
	attrs   Attributes
	content *StringTemplate
}

func (e *element) Attrs() Attributes { return e.attrs }

// Content returns the element's text content, if any.
func (e *element) Content() (StringTemplate, bool) {
	if e.content == nil {
		return StringTemplate{}, false
	}
	return *e.content, true
}

// attr returns the named attribute.
func (e *element) attr(name string) (StringTemplate, bool) {
	t, ok := e.attrs[name]
	return t, ok
}

// Frame is a container, optionally with auto-layout.
type Frame struct {
	element
	Children []Node
}

// Text is a text run.
type Text struct{ element }

// Rectangle is a box shape.
type Rectangle struct{ element }

// Ellipse is an ellipse shape.
type Ellipse struct{ element }

// Polygon is a regular polygon or, with points, a closed vector shape.
type Polygon struct{ element }

// Import renders another component in place.
type Import struct{ element }

func (*Frame) Tag() string     { return "frame" }
func (*Text) Tag() string      { return "text" }
func (*Rectangle) Tag() string { return "rectangle" }
func (*Ellipse) Tag() string   { return "ellipse" }
func (*Polygon) Tag() string   { return "polygon" }
func (*Import) Tag() string    { return "import" }

func (*Frame) isNode()     {}
func (*Text) isNode()      {}
func (*Rectangle) isNode() {}
func (*Ellipse) isNode()   {}
func (*Polygon) isNode()   {}
func (*Import) isNode()    {}
