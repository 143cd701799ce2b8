package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// tags that never contribute readable page content
const boilerplateSelector = "script, style, noscript, nav, header, footer, aside, iframe, template"

// Extract converts raw HTML into a cleaned linear text stream. Malformed
// markup is recovered best-effort, an empty string means nothing textual
// was found.
func Extract(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// the html parser recovers from almost anything, this only
		// trips on reader failures
		log.Warn().Err(err).Msg("Failed to parse HTML")
		return ""
	}

	doc.Find(boilerplateSelector).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	// join text nodes with spaces so block siblings do not run together
	var text strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range body.Nodes {
		walk(n)
	}

	return collapseWhitespace(text.String())
}

// FromContentType picks an extraction strategy by the response content type.
// Web servers mostly return HTML, but pages served as PDF, markdown or plain
// text are handled too. Unknown types go through the HTML path.
func FromContentType(contentType string, body []byte) string {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	if mediaType == "" && bytes.HasPrefix(body, []byte("%PDF-")) {
		mediaType = "application/pdf"
	}

	switch mediaType {
	case "application/pdf":
		return extractPDF(body)
	case "text/markdown", "text/x-markdown":
		return extractMarkdown(body)
	case "text/plain":
		return collapseWhitespace(string(body))
	default:
		return Extract(string(body))
	}
}

func extractPDF(body []byte) (out string) {
	// the pdf package panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("PDF extraction panicked")
			out = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open PDF")
		return ""
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("Failed to read PDF page")
			continue
		}
		text.WriteString(pageText)
		text.WriteString(" ")
	}

	return collapseWhitespace(text.String())
}

// markdown is rendered to HTML first so the HTML path strips syntax and
// link targets uniformly
func extractMarkdown(body []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to convert markdown")
		return collapseWhitespace(string(body))
	}
	return Extract(buf.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
