package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

func TestIsSupported(t *testing.T) {
	require.True(t, IsSupported("notes.pdf"))
	require.True(t, IsSupported("notes.DOCX"))
	require.True(t, IsSupported("notes.md"))
	require.True(t, IsSupported("notes.markdown"))
	require.True(t, IsSupported("notes.txt"))
	require.False(t, IsSupported("notes.png"))
	require.False(t, IsSupported("notes"))
}

func TestParseTxt(t *testing.T) {
	res, err := Parse([]byte("hello   world\n\n\nsecond  line"), "a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello world\nsecond line", res.Text)
	require.Equal(t, 4, res.WordCount)
}

func TestParseMarkdown(t *testing.T) {
	md := "# Title\n\nFirst paragraph with **bold** text.\n\n- item one\n- item two\n"
	res, err := Parse([]byte(md), "a.md")
	require.NoError(t, err)
	require.Contains(t, res.Text, "Title")
	require.Contains(t, res.Text, "First paragraph with bold text")
	require.Contains(t, res.Text, "item one")
	require.NotContains(t, res.Text, "#")
	require.NotContains(t, res.Text, "**")
}

func TestParseDocx(t *testing.T) {
	res, err := Parse(buildDocx(t, []string{"First paragraph.", "Second paragraph."}), "a.docx")
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\nSecond paragraph.", res.Text)
	require.Equal(t, 4, res.WordCount)
}

func TestParseRejectsUnsupported(t *testing.T) {
	_, err := Parse([]byte("data"), "a.png")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse(nil, "a.txt")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestParseRejectsBlankText(t *testing.T) {
	_, err := Parse([]byte("   \n\t  "), "a.txt")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestParseBrokenPDF(t *testing.T) {
	_, err := Parse([]byte("definitely not a pdf"), "a.pdf")
	require.Error(t, err)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "spaces", in: "a   b\tc", want: "a b c"},
		{name: "newlines", in: "a\n\n\nb", want: "a\nb"},
		{name: "mixed", in: "  a \r\n\n b  ", want: "a\nb"},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>")
		if err := xmlEscape(&body, p); err != nil {
			t.Fatal(err)
		}
		body.WriteString("</w:t></w:r></w:p>")
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func xmlEscape(buf *bytes.Buffer, s string) error {
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return nil
}
