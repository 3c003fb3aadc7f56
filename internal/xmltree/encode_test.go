package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	root := Elem("fcpxml", A("version", "1.11"))
	res := Elem("resources")
	res.Append(Elem("format", A("id", "r1"), A("name", `A "quoted" <name>`)))
	root.Append(res, Elem("note").Append(TextNode("a & b")))

	out, err := Marshal(root, EncodeOptions{Doctype: "fcpxml"})
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE fcpxml>
<fcpxml version="1.11">
    <resources>
        <format id="r1" name="A &quot;quoted&quot; &lt;name&gt;"/>
    </resources>
    <note>a &amp; b</note>
</fcpxml>
`
	assert.Equal(t, want, string(out))
}

func TestEncode_RoundTrip(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE fcpxml>
<fcpxml version="1.11">
    <library location="file:///x/">
        <event name="E &amp; F">
            <text><text-style ref="ts1">Hello</text-style> world</text>
            <marker note="line1&#10;line2" value="m"/>
        </event>
    </library>
</fcpxml>
`
	root, err := Parse([]byte(doc), Limits{})
	require.NoError(t, err)
	out, err := Marshal(root, EncodeOptions{Doctype: "fcpxml"})
	require.NoError(t, err)
	assert.Equal(t, doc, string(out))

	again, err := Parse(out, Limits{})
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestNodeHelpers(t *testing.T) {
	n := Elem("clip", A("name", "a"))
	n.SetAttr("name", "b")
	n.SetAttr("offset", "0s")
	assert.Equal(t, []Attr{{"name", "b"}, {"offset", "0s"}}, n.Attrs)
	assert.True(t, n.RemoveAttr("name"))
	assert.False(t, n.RemoveAttr("name"))

	c := n.Clone()
	c.SetAttr("offset", "1s")
	assert.Equal(t, "0s", n.AttrOr("offset", ""))

	var names []string
	root := Elem("a").Append(Elem("b").Append(Elem("c")), Elem("d"))
	root.Walk(func(x *Node) bool {
		names = append(names, x.Name)
		return x.Name != "b"
	})
	assert.Equal(t, []string{"a", "b", "d"}, names)
}
