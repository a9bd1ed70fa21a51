package markup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitmap/diagram"
	"transitmap/scene"
)

type mapResolver map[string]string

func (m mapResolver) Resolve(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", ErrComponentNotFound
	}
	return src, nil
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		props   Props
		want    string
		wantErr bool
	}{
		{name: "constant", input: "hello", want: "hello"},
		{name: "binding", input: "Line $$prop:text$$!", props: Props{"text": "A"}, want: "Line A!"},
		{name: "escaped marker", input: `cost $\$5`, want: "cost $$5"},
		{name: "color", input: "$$prop:c$$", props: Props{"c": diagram.Color{R: 1}}, want: "#ff0000"},
		{name: "bool and number", input: "$$prop:b$$ $$prop:n$$", props: Props{"b": false, "n": 90.0}, want: "false 90"},
		{name: "missing prop renders its name", input: "$$prop:gone$$", want: "gone"},
		{name: "not a prop binding", input: "$$other:x$$", wantErr: true},
		{name: "unbalanced", input: "$$prop:x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Interpolate(tt.props))
		})
	}
}

func TestChildrenPassthrough(t *testing.T) {
	tmpl, err := ParseTemplate(" $$prop:children$$ ")
	require.NoError(t, err)
	assert.True(t, tmpl.IsChildrenPassthrough())

	tmpl, err = ParseTemplate("x $$prop:children$$")
	require.NoError(t, err)
	assert.False(t, tmpl.IsChildrenPassthrough())
}

func TestVariantKeys(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "implicit",
			src:  `<component><rectangle/></component>`,
			want: []string{""},
		},
		{
			name: "declared order",
			src: `<component>
				<variant prop:a="1" prop:b="x"><rectangle/></variant>
				<variant><ellipse/></variant>
			</component>`,
			want: []string{"a:1,b:x", "default"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.name, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.VariantKeys())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("bad", `<component><circle/></component>`)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "bad", pe.Component)
	assert.True(t, errors.Is(err, ErrUnknownTag))

	_, err = Parse("root", `<frame/>`)
	assert.Error(t, err)

	_, err = Parse("tmpl", `<component><text name="$$x$$"/></component>`)
	assert.Error(t, err)
}

func TestRenderExactVariant(t *testing.T) {
	c, err := Parse("dot", `<component prop:color="#00ff00">
		<variant prop:stops="true"><ellipse name="Stop" fill="$$prop:color$$"/></variant>
		<variant prop:stops="false"><rectangle name="Pass"/></variant>
	</component>`)
	require.NoError(t, err)
	doc := scene.NewDocument()

	n, err := c.RenderNode(context.Background(), doc, nil, map[string]string{"stops": "true"})
	require.NoError(t, err)
	assert.Equal(t, scene.KindEllipse, n.Kind())
	assert.Equal(t, "Stop", n.Name)
	require.NotNil(t, n.Fill)
	assert.Equal(t, "#00ff00", n.Fill.Hex())

	_, err = c.Render(doc, nil, map[string]string{"stops": "maybe"})
	assert.True(t, errors.Is(err, ErrVariantNotFound))
	assert.Contains(t, err.Error(), "stops:maybe")

	_, err = c.Render(doc, nil, nil)
	assert.True(t, errors.Is(err, ErrVariantNotFound))
}

func TestImportFallback(t *testing.T) {
	engine := NewEngine(mapResolver{
		"pair": `<component>
			<variant prop:a="1" prop:b="x"><rectangle name="one-x"/></variant>
			<variant prop:a="2" prop:b="x"><rectangle name="two-x"/></variant>
		</component>`,
		"withDefault": `<component>
			<variant prop:a="1"><rectangle name="one"/></variant>
			<variant><rectangle name="fallback"/></variant>
		</component>`,
	})

	tests := []struct {
		name  string
		attrs string
		want  string
	}{
		{name: "exact", attrs: `from="pair" a="2" b="x"`, want: "two-x"},
		{name: "unique subset", attrs: `from="pair" a="1"`, want: "one-x"},
		{name: "ambiguous subset uses first", attrs: `from="pair" b="x"`, want: "one-x"},
		{name: "none supplied uses first", attrs: `from="pair"`, want: "one-x"},
		{name: "default variant", attrs: `from="withDefault" a="9"`, want: "fallback"},
		{name: "prop prefix accepted", attrs: `from="withDefault" prop:a="1"`, want: "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := engine.Parse("host", `<component><frame><import `+tt.attrs+`/></frame></component>`)
			require.NoError(t, err)
			n, err := c.RenderNode(context.Background(), scene.NewDocument(), nil, nil)
			require.NoError(t, err)
			children := n.Children()
			require.Len(t, children, 1)
			assert.Equal(t, tt.want, children[0].Name)
		})
	}
}

func TestImportErrors(t *testing.T) {
	engine := NewEngine(mapResolver{
		"self": `<component><frame><import from="self"/></frame></component>`,
	})
	doc := scene.NewDocument()

	c, err := engine.Parse("host", `<component><frame><import name="x"/></frame></component>`)
	require.NoError(t, err)
	_, err = c.Render(doc, nil, nil)
	assert.True(t, errors.Is(err, ErrMissingFrom))

	c, err = engine.Parse("host", `<component><frame><import from="nope"/></frame></component>`)
	require.NoError(t, err)
	_, err = c.Render(doc, nil, nil)
	assert.True(t, errors.Is(err, ErrComponentNotFound))

	self, err := engine.Component("self")
	require.NoError(t, err)
	_, err = self.Render(doc, nil, nil)
	assert.ErrorContains(t, err, "nesting deeper")
}

func TestFrameAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attrs   string
		primary scene.Align
		counter scene.Align
		padding scene.Padding
	}{
		{
			name:    "horizontal",
			attrs:   `flow="horizontal" align="right,top" padding="h=4 v=2"`,
			primary: scene.AlignMax, counter: scene.AlignMin,
			padding: scene.Padding{Left: 4, Right: 4, Top: 2, Bottom: 2},
		},
		{
			name:    "vertical swaps axes",
			attrs:   `flow="vertical" align="right,top" padding="l=1 r=2 t=3 b=4"`,
			primary: scene.AlignMin, counter: scene.AlignMax,
			padding: scene.Padding{Left: 1, Right: 2, Top: 3, Bottom: 4},
		},
		{
			name:    "uniform padding",
			attrs:   `flow="horizontal" align="center,center" padding="5"`,
			primary: scene.AlignCenter, counter: scene.AlignCenter,
			padding: scene.Padding{Left: 5, Right: 5, Top: 5, Bottom: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse("f", `<component><frame `+tt.attrs+`/></component>`)
			require.NoError(t, err)
			n, err := c.RenderNode(context.Background(), scene.NewDocument(), nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.primary, n.PrimaryAlign)
			assert.Equal(t, tt.counter, n.CounterAlign)
			assert.Equal(t, tt.padding, n.Padding)
			assert.Nil(t, n.Fill)
			assert.False(t, n.ClipsContent)
		})
	}
}

func TestApplyErrorsAreWrapped(t *testing.T) {
	c, err := Parse("f", `<component><frame name="Outer"><rectangle visible="maybe"/></frame></component>`)
	require.NoError(t, err)
	_, err = c.RenderNode(context.Background(), scene.NewDocument(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering child node RECTANGLE of frame Outer")
	assert.Contains(t, err.Error(), `invalid visible "maybe"`)
}

func TestSizingAttributes(t *testing.T) {
	c, err := Parse("f", `<component>
		<frame flow="horizontal" width="hug" height="40">
			<rectangle width="fill" height="10"/>
			<text width="hug">Hi</text>
		</frame>
	</component>`)
	require.NoError(t, err)
	doc := scene.NewDocument()
	n, err := c.RenderNode(context.Background(), doc, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, scene.Hug, n.SizingH)
	assert.Equal(t, scene.Fixed, n.SizingV)
	children := n.Children()
	assert.Equal(t, scene.Fill, children[0].SizingH)
	assert.Equal(t, scene.Hug, children[1].SizingH)
}

func TestPolygonPoints(t *testing.T) {
	c, err := Parse("p", `<component><polygon points="0,0 10,0 5,$$prop:h$$" fill="#ff0000"/></component>`)
	require.NoError(t, err)
	n, err := c.RenderNode(context.Background(), scene.NewDocument(), Props{"h": 8.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, scene.KindVector, n.Kind())
	require.NotNil(t, n.Network)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 0}}, n.Network.Segments)
	assert.Equal(t, "NONZERO", n.Network.Regions[0].WindingRule)

	c, err = Parse("p", `<component><polygon sides="6"/></component>`)
	require.NoError(t, err)
	n, err = c.RenderNode(context.Background(), scene.NewDocument(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, scene.KindPolygon, n.Kind())
	assert.Equal(t, 6, n.PointCount)
}

func TestTextAttributes(t *testing.T) {
	c, err := Parse("t", `<component><text fontFamily="Wingdings" fontSize="14" align="right,bottom" text="$$prop:label$$"/></component>`)
	require.NoError(t, err)
	doc := scene.NewDocument()
	n, err := c.RenderNode(context.Background(), doc, Props{"label": "Central"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Central", n.Characters)
	assert.Equal(t, scene.DefaultFontFamily, n.FontFamily)
	assert.Equal(t, 14.0, n.FontSize)
	assert.Equal(t, "RIGHT", n.TextAlignH)
	assert.Equal(t, "BOTTOM", n.TextAlignV)
}

func TestChildrenAreSpliced(t *testing.T) {
	doc := scene.NewDocument()
	a, b := doc.CreateRectangle(), doc.CreateEllipse()
	engine := NewEngine(mapResolver{
		"box": `<component><frame name="Box" flow="vertical">$$prop:children$$</frame></component>`,
	})
	c, err := engine.Parse("host", `<component><frame name="Host"><import from="box">$$prop:children$$</import></frame></component>`)
	require.NoError(t, err)

	n, err := c.RenderNode(context.Background(), doc, Props{ChildrenProp: []*scene.Node{a, b}}, nil)
	require.NoError(t, err)
	box := n.Children()[0]
	assert.Equal(t, "Box", box.Name)
	assert.Equal(t, []*scene.Node{a, b}, box.Children())
}

func TestBuiltinStationLine(t *testing.T) {
	engine := NewEngine(EmbedResolver{})
	c, err := engine.Component("station-line")
	require.NoError(t, err)
	assert.Equal(t, []string{"facing"}, c.Discriminators())

	doc := scene.NewDocument()
	props := Props{"text": "Red", "color": diagram.Color{R: 1}, "stops": false, "visible": true}
	n, err := c.RenderNode(context.Background(), doc, props, map[string]string{"facing": "right"})
	require.NoError(t, err)

	children := n.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "Red", children[0].Characters)
	assert.Equal(t, "Pass", children[1].Name)
	require.NotNil(t, children[1].Stroke)
	assert.Equal(t, "#ff0000", children[1].Stroke.Hex())
}

func TestBuiltinComponentsParse(t *testing.T) {
	engine := NewEngine(EmbedResolver{})
	for _, name := range []string{"station", "station-text", "station-content", "station-line", "station-line-dot", "station-line-text"} {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Component(name)
			assert.NoError(t, err)
		})
	}
}

func TestDirResolverOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "station-line-text.xml"),
		[]byte(`<component><text name="Custom">$$prop:text$$</text></component>`), 0o644))

	r := NewResolver(dir)
	src, err := r.Resolve("station-line-text")
	require.NoError(t, err)
	assert.Contains(t, src, "Custom")

	src, err = r.Resolve("station-line-dot")
	require.NoError(t, err)
	assert.Contains(t, src, "Stop")

	_, err = r.Resolve("../etc/passwd")
	assert.Error(t, err)
}
