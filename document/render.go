package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
)

// Renderer turns generated markdown summaries into standalone HTML files in
// the upload folder, ready to serve as download attachments.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

const pageStyle = `body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1 { border-bottom: 2px solid #444; padding-bottom: 0.3rem; }
li { margin: 0.25rem 0; }`

// RenderSummary writes the summary as an HTML document named after the
// original upload and returns the file path.
func (r *Renderer) RenderSummary(summaryText, originalFilename string) (string, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	htmlRenderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.ToHTML([]byte(summaryText), p, htmlRenderer)

	title := "Summary of " + originalFilename
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>%s</style>
</head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`, title, pageStyle, title, body)

	name := fmt.Sprintf("summary_%s_%s.html", uuid.New().String(), baseName(originalFilename))
	path := filepath.Join(r.outputDir, name)

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return "", fmt.Errorf("write summary file: %w", err)
	}
	return path, nil
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
