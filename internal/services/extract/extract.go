// Package extract turns captured page content into clip text.
package extract

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// UntitledPage is used by Bookmark when the page has no title.
const UntitledPage = "无标题"

var (
	lineBreakTag   = regexp.MustCompile(`(?i)<br\b[^>]*>`)
	ruleTag        = regexp.MustCompile(`(?i)<hr\b[^>]*>`)
	blockCloseTag  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|article|section|header|footer|aside|dd|dt|figcaption|figure|ol|ul|table|address)\s*>`)
	repeatedBreaks = regexp.MustCompile(`\n{2,}`)
)

// Extractor converts HTML fragments to plain text.
type Extractor struct {
	stripTagsPolicy *bluemonday.Policy
}

// New creates a new Extractor.
func New() *Extractor {
	return &Extractor{
		stripTagsPolicy: bluemonday.StripTagsPolicy(),
	}
}

// FromHTML converts an HTML selection into text, keeping the line structure
// implied by line breaks, block elements and horizontal rules. Blank lines are
// dropped.
func (e *Extractor) FromHTML(fragment string) string {
	text := strings.ReplaceAll(fragment, "\r\n", "\n")
	text = lineBreakTag.ReplaceAllString(text, "\n")
	text = blockCloseTag.ReplaceAllString(text, "$0\n")
	text = ruleTag.ReplaceAllString(text, "\n---\n")

	text = html.UnescapeString(e.stripTagsPolicy.Sanitize(text))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(repeatedBreaks.ReplaceAllString(text, "\n"))
}

// FromHTML converts an HTML selection into text using a default Extractor.
func FromHTML(fragment string) string {
	return New().FromHTML(fragment)
}

// Bookmark builds the message sent when saving a page link.
func Bookmark(title, pageURL string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = UntitledPage
	}
	return title + "\n\n" + strings.TrimSpace(pageURL)
}
