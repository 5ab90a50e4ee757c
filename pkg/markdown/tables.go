package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// Assistant replies carry tables in one of two encodings: raw <tr>/<td>
// fragments, or markdown pipe tables. Both are converted to one canonical
// styled table and wrapped in a <custom-table> marker so the markdown
// renderer passes the block through untouched; Derawify swaps the marker for
// a scrollable container after rendering.

const (
	markerOpen  = "<custom-table>"
	markerClose = "</custom-table>"

	tableClass = "border-collapse table-auto w-full text-sm my-4"
	thClass    = "border-b border-gray-700 font-medium p-4 pl-8 pt-0 pb-3 text-gray-300"
	tdClass    = "border-b border-gray-600 p-4 pl-8 text-gray-200"
)

var (
	htmlCellRe = regexp.MustCompile(`(?s)<td[^>]*>(.*?)</td>`)

	// A pipe table: header row, separator row, one or more body rows.
	pipeTableRe = regexp.MustCompile(`(?m)^[ \t]*\|.*\|.*\n[ \t]*\|.*\|.*\n(?:[ \t]*\|.*\|.*(?:\n|$))+`)

	markerRe = regexp.MustCompile(`(?s)<custom-table>(.*?)</custom-table>`)

	// Already-normalized regions, wrapped or unwrapped. Their contents must
	// never be converted again.
	normalizedRe = regexp.MustCompile(
		`(?s)<custom-table>.*?</custom-table>` +
			`|<table class="` + regexp.QuoteMeta(tableClass) + `">.*?</table>`)
)

// NormalizeTables detects tabular content and converts it to the canonical
// marker-wrapped table. Input without tables passes through unchanged.
// Already-normalized tables are skipped region by region, so re-rendering a
// message never corrupts them while new tables next to them still convert.
func NormalizeTables(content string) string {
	normalized := normalizedRe.FindAllStringIndex(content, -1)
	if len(normalized) == 0 {
		return normalizeRegion(content)
	}

	var b strings.Builder
	last := 0
	for _, m := range normalized {
		b.WriteString(normalizeRegion(content[last:m[0]]))
		b.WriteString(content[m[0]:m[1]])
		last = m[1]
	}
	b.WriteString(normalizeRegion(content[last:]))
	return b.String()
}

func normalizeRegion(content string) string {
	if strings.Contains(content, "<tr>") && strings.Contains(content, "<td") {
		return normalizeHTMLFragment(content)
	}
	return pipeTableRe.ReplaceAllStringFunc(content, convertPipeTable)
}

// Derawify replaces every marker with its inner table wrapped in a
// scroll-capable container. Running it on unwrapped text changes nothing.
func Derawify(content string) string {
	return markerRe.ReplaceAllString(content, `<div class="my-4 overflow-x-auto">$1</div>`)
}

// normalizeHTMLFragment folds every cell of a raw table fragment into a
// single header row and keeps the whole original fragment as the body. Multi-
// row input therefore gets a degenerate header; that mirrors how these
// fragments are actually produced upstream (one row of cells at a time).
func normalizeHTMLFragment(content string) string {
	var header strings.Builder
	for _, cell := range htmlCellRe.FindAllStringSubmatch(content, -1) {
		fmt.Fprintf(&header, `<th class="%s text-left">%s</th>`, thClass, cell[1])
	}

	var b strings.Builder
	b.WriteString(markerOpen)
	fmt.Fprintf(&b, `<table class="%s">`, tableClass)
	fmt.Fprintf(&b, `<thead><tr class="bg-gray-800">%s</tr></thead>`, header.String())
	fmt.Fprintf(&b, `<tbody class="bg-gray-700">%s</tbody>`, content)
	b.WriteString(`</table>`)
	b.WriteString(markerClose)
	return b.String()
}

func convertPipeTable(match string) string {
	rows := strings.Split(strings.TrimSpace(match), "\n")
	if len(rows) < 3 {
		return match
	}

	headers := splitCells(rows[0])
	alignments := make([]string, 0, len(headers))
	for _, sep := range splitCells(rows[1]) {
		switch {
		case strings.HasPrefix(sep, ":") && strings.HasSuffix(sep, ":"):
			alignments = append(alignments, "center")
		case strings.HasSuffix(sep, ":"):
			alignments = append(alignments, "right")
		default:
			alignments = append(alignments, "left")
		}
	}

	var b strings.Builder
	b.WriteString(markerOpen)
	fmt.Fprintf(&b, `<table class="%s">`, tableClass)

	b.WriteString(`<thead><tr class="bg-gray-800">`)
	for i, h := range headers {
		fmt.Fprintf(&b, `<th class="%s text-%s">%s</th>`, thClass, alignmentAt(alignments, i), h)
	}
	b.WriteString(`</tr></thead>`)

	b.WriteString(`<tbody class="bg-gray-700">`)
	for _, row := range rows[2:] {
		b.WriteString(`<tr>`)
		for i, cell := range splitCells(row) {
			fmt.Fprintf(&b, `<td class="%s text-%s">%s</td>`, tdClass, alignmentAt(alignments, i), cell)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)

	b.WriteString(markerClose)
	return b.String()
}

// splitCells splits a pipe-delimited row into trimmed cell values, dropping
// the empty pieces produced by the leading and trailing pipes.
func splitCells(row string) []string {
	var cells []string
	for _, piece := range strings.Split(row, "|") {
		if piece == "" {
			continue
		}
		cells = append(cells, strings.TrimSpace(piece))
	}
	return cells
}

func alignmentAt(alignments []string, i int) string {
	if i < len(alignments) {
		return alignments[i]
	}
	return "left"
}
