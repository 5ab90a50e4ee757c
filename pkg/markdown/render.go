package markdown

import "github.com/russross/blackfriday"

// ToHTML is the full display pipeline for one message body: normalize tables,
// render markdown, unwrap the table markers. Each phase is idempotent, so
// re-rendering already-displayed content is harmless.
func ToHTML(content string) string {
	normalized := NormalizeTables(content)
	rendered := blackfriday.MarkdownCommon([]byte(normalized))
	return Derawify(string(rendered))
}
