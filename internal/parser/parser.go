// Package parser turns uploaded document bytes into clean plain text.
// The rest of the pipeline only ever sees the extracted text.
package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

type Result struct {
	Text      string
	WordCount int
}

var supportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
}

func IsSupported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Parse extracts and normalizes text from the given document bytes.
func Parse(data []byte, filename string) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", appErr.ErrInvalid)
	}
	var (
		raw string
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		raw, err = extractPDF(data)
	case ".docx":
		raw, err = extractDOCX(data)
	case ".md", ".markdown":
		raw, err = extractMarkdown(data)
	case ".txt":
		raw = string(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type: %s", appErr.ErrInvalid, filename)
	}
	if err != nil {
		return nil, err
	}
	clean := CleanText(raw)
	if clean == "" {
		return nil, fmt.Errorf("%w: no text extracted from %s", appErr.ErrInvalid, filename)
	}
	return &Result{Text: clean, WordCount: WordCount(clean)}, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX reads word/document.xml from the docx archive and keeps
// the run text, one line per paragraph.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx has no word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode docx body: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := extractNodeText(node, data); txt != "" {
			sb.WriteString(txt)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractNodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteString(" ")
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\r\f]+`)
	newlineRun = regexp.MustCompile(`\n+`)
)

// CleanText collapses whitespace runs and repeated newlines.
func CleanText(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = newlineRun.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}
