package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{
			content: "**Hello**",
			want:    "<p><strong>Hello</strong></p>\n",
		},
		{
			content: "- [x] book train",
			want:    "<ul>\n<li><input checked=\"\" disabled=\"\" type=\"checkbox\"> book train</li>\n</ul>\n",
		},
		{
			content: "line one\nline two",
			want:    "<p>line one<br>\nline two</p>\n",
		},
		{
			content: "<script>alert(1)</script>",
			want:    "<!-- raw HTML omitted -->\n",
		},
	}

	for _, test := range tests {
		got, err := RenderHTML(test.content)
		require.NoError(t, err)
		require.Equal(t, test.want, got)
	}
}
