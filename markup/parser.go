package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnknownTag is returned for elements outside the template dialect.
	ErrUnknownTag = errors.New("unknown tag")
	// ErrMissingFrom is returned for an import without a from attribute.
	ErrMissingFrom = errors.New("import requires a from attribute")
	// ErrVariantNotFound is returned when no variant matches a selector.
	ErrVariantNotFound = errors.New("variant not found")
)

// ParseError describes a failure to parse a component source.
type ParseError struct {
	Component string
	Tag       string
	Err       error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse component")
	if e.Component != "" {
		fmt.Fprintf(&b, " %s", e.Component)
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, " <%s>", e.Tag)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// rawElement is the generic element tree produced by the XML pass.
type rawElement struct {
	tag      string
	attrs    []attr
	text     strings.Builder
	children []*rawElement
}

type attr struct {
	name, value string
}

// Parse parses a component source. name is only used in errors.
func Parse(name, src string) (*Component, error) {
	root, err := readTree(src)
	if err != nil {
		return nil, &ParseError{Component: name, Err: err}
	}
	if root.tag != "component" {
		return nil, &ParseError{Component: name, Tag: root.tag, Err: errors.New("root element must be a component")}
	}

	c := &Component{name: name, defaults: Props{}}
	for _, a := range root.attrs {
		if prop, ok := strings.CutPrefix(a.name, propPrefix); ok {
			c.defaults[prop] = a.value
		}
	}

	hasVariants := false
	for _, child := range root.children {
		if child.tag == "variant" {
			hasVariants = true
			break
		}
	}

	if !hasVariants {
		if len(root.children) == 0 {
			return nil, &ParseError{Component: name, Err: errors.New("component has no content")}
		}
		node, err := convert(root.children[0])
		if err != nil {
			return nil, &ParseError{Component: name, Tag: root.children[0].tag, Err: err}
		}
		c.variants = append(c.variants, variant{key: "", node: node})
		return c, nil
	}

	for _, v := range root.children {
		if v.tag != "variant" {
			return nil, &ParseError{Component: name, Tag: v.tag, Err: errors.New("content must be inside a variant when variants are declared")}
		}
		if len(v.children) == 0 {
			continue
		}
		node, err := convert(v.children[0])
		if err != nil {
			return nil, &ParseError{Component: name, Tag: v.children[0].tag, Err: err}
		}
		entry := variant{node: node}
		for _, a := range v.attrs {
			prop, ok := strings.CutPrefix(a.name, propPrefix)
			if !ok {
				continue
			}
			entry.pairs = append(entry.pairs, [2]string{prop, a.value})
			if !c.isDiscriminator(prop) {
				c.discriminators = append(c.discriminators, prop)
			}
		}
		entry.key = variantKey(entry.pairs)
		if entry.key == "" {
			entry.key = DefaultVariant
		}
		c.variants = append(c.variants, entry)
	}
	return c, nil
}

// readTree decodes the XML into a rawElement tree rooted at the first
// element.
func readTree(src string) (*rawElement, error) {
	dec := xml.NewDecoder(strings.NewReader(src))
	var stack []*rawElement
	var root *rawElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &rawElement{tag: t.Name.Local}
			for _, a := range t.Attr {
				n := a.Name.Local
				if a.Name.Space != "" {
					n = a.Name.Space + ":" + n
				}
				el.attrs = append(el.attrs, attr{name: n, value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

func convert(raw *rawElement) (Node, error) {
	el := element{attrs: Attributes{}}
	for _, a := range raw.attrs {
		t, err := ParseTemplate(a.value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.name, err)
		}
		el.attrs[a.name] = t
	}
	if text := strings.TrimSpace(raw.text.String()); text != "" {
		t, err := ParseTemplate(text)
		if err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
		el.content = &t
	}

	switch raw.tag {
	case "frame":
		f := &Frame{element: el}
		for _, child := range raw.children {
			n, err := convert(child)
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, n)
		}
		return f, nil
	case "text":
		return &Text{element: el}, nil
	case "rectangle":
		return &Rectangle{element: el}, nil
	case "ellipse":
		return &Ellipse{element: el}, nil
	case "polygon":
		return &Polygon{element: el}, nil
	case "import":
		return &Import{element: el}, nil
	default:
		return nil, fmt.Errorf("<%s>: %w", raw.tag, ErrUnknownTag)
	}
}
