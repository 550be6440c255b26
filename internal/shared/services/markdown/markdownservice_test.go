package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLSanitized(t *testing.T) {
	svc := NewMarkdownService()

	out, err := svc.ToHTMLSanitized("**Welcome** to the shop\n\n<script>alert(1)</script>[help](https://example.com/help)")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Welcome</strong>")
	assert.Contains(t, out, `href="https://example.com/help"`)
	assert.NotContains(t, out, "<script>")

	out, err = svc.ToHTMLSanitized("   ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPlainText(t *testing.T) {
	svc := NewMarkdownService()

	assert.Equal(t, "Taro", svc.PlainText("<b>Taro</b>"))
	assert.Equal(t, "Tom & Jerry", svc.PlainText("Tom & Jerry"))
	assert.Equal(t, "たろう", svc.PlainText(" たろう "))
	assert.Equal(t, "", svc.PlainText(`<img src=x onerror="alert(1)">`))
}
