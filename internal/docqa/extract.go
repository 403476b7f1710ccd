package docqa

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// ExtractText returns the plain text of a pdf, markdown or text upload.
func ExtractText(doc Document) (string, error) {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return extractPDF(doc)
	case ".md", ".markdown":
		return extractMarkdown(doc.Data), nil
	case ".txt":
		if !utf8.Valid(doc.Data) {
			return "", appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("%s is not valid utf-8 text", doc.Name))
		}
		return string(doc.Data), nil
	default:
		return "", appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("unsupported file type: %s", doc.Name))
	}
}

func extractPDF(doc Document) (string, error) {
	if !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		return "", appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("%s is not a pdf", doc.Name))
	}
	pdf, err := fitz.NewFromMemory(doc.Data)
	if err != nil {
		return "", appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("%s is not a readable pdf", doc.Name))
	}
	defer func() { _ = pdf.Close() }()

	var sb strings.Builder
	for i := 0; i < pdf.NumPage(); i++ {
		page, err := pdf.Text(i)
		if err != nil {
			return "", fmt.Errorf("extract page %d of %s: %w", i+1, doc.Name, err)
		}
		if sb.Len() > 0 && page != "" {
			sb.WriteString("\n")
		}
		sb.WriteString(page)
	}
	return sb.String(), nil
}

// extractMarkdown keeps block boundaries as blank lines so the splitter can use them.
func extractMarkdown(source []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))
	var blocks []string
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		var txt string
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			txt = linesText(n.Lines(), source)
		case *ast.CodeBlock:
			txt = linesText(n.Lines(), source)
		default:
			txt = inlineText(node, source)
		}
		txt = strings.TrimSpace(txt)
		if txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func linesText(lines *text.Segments, source []byte) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}
