package social

import (
	"html"
	"strings"
	"unicode/utf8"
)

// renderBlocks turns an ordered rich-text block list into an HTML fragment
// and reports the accumulated plain-text length in runes. Empty and atomic
// blocks are skipped entirely; embedded media is not supported.
func renderBlocks(blocks []apiBlock) (string, int) {
	var b strings.Builder
	textLen := 0

	// openList tracks the currently open list element, "" when none.
	openList := ""
	closeList := func() {
		if openList != "" {
			b.WriteString("</")
			b.WriteString(openList)
			b.WriteString(">")
			openList = ""
		}
	}

	for _, blk := range blocks {
		if blk.Type == "atomic" || strings.TrimSpace(blk.Text) == "" {
			continue
		}
		textLen += utf8.RuneCountInString(blk.Text)

		if want, ok := listTag(blk.Type); ok {
			if openList != want {
				closeList()
				b.WriteString("<")
				b.WriteString(want)
				b.WriteString(">")
				openList = want
			}
			b.WriteString("<li>")
			writeStyledText(&b, blk)
			b.WriteString("</li>")
			continue
		}

		closeList()
		switch blk.Type {
		case "header-one":
			b.WriteString("<h1>")
			writeStyledText(&b, blk)
			b.WriteString("</h1>")
		case "header-two":
			b.WriteString("<h2>")
			writeStyledText(&b, blk)
			b.WriteString("</h2>")
		case "header-three":
			b.WriteString("<h3>")
			writeStyledText(&b, blk)
			b.WriteString("</h3>")
		case "blockquote":
			b.WriteString("<blockquote><p>")
			writeStyledText(&b, blk)
			b.WriteString("</p></blockquote>")
		default:
			// unstyled and any unrecognized type render as a paragraph.
			b.WriteString("<p>")
			writeStyledText(&b, blk)
			b.WriteString("</p>")
		}
	}
	closeList()

	return b.String(), textLen
}

func listTag(blockType string) (string, bool) {
	switch blockType {
	case "unordered-list-item":
		return "ul", true
	case "ordered-list-item":
		return "ol", true
	}
	return "", false
}

// writeStyledText emits the block text with inline styles applied. Style
// ranges are clamped to the text bounds, folded into per-rune bold/italic
// maps, and emitted as maximal runs of identical style with bold nesting
// outside italic. Run text is escaped.
func writeStyledText(b *strings.Builder, blk apiBlock) {
	runes := []rune(blk.Text)
	bold := make([]bool, len(runes))
	italic := make([]bool, len(runes))
	for _, r := range blk.InlineStyleRanges {
		start, end := clampRange(r.Offset, r.Length, len(runes))
		for i := start; i < end; i++ {
			switch strings.ToUpper(r.Style) {
			case "BOLD":
				bold[i] = true
			case "ITALIC":
				italic[i] = true
			}
		}
	}

	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && bold[j] == bold[i] && italic[j] == italic[i] {
			j++
		}
		run := html.EscapeString(string(runes[i:j]))
		switch {
		case bold[i] && italic[i]:
			b.WriteString("<strong><em>")
			b.WriteString(run)
			b.WriteString("</em></strong>")
		case bold[i]:
			b.WriteString("<strong>")
			b.WriteString(run)
			b.WriteString("</strong>")
		case italic[i]:
			b.WriteString("<em>")
			b.WriteString(run)
			b.WriteString("</em>")
		default:
			b.WriteString(run)
		}
		i = j
	}
}

// clampRange bounds a style range to [0, max) rune indices. The end index
// stays anchored to offset+length so negative offsets shrink the run.
func clampRange(offset, length, max int) (start, end int) {
	if length <= 0 || offset >= max {
		return 0, 0
	}
	start, end = offset, offset+length
	if start < 0 {
		start = 0
	}
	if end > max {
		end = max
	}
	if end <= start {
		return 0, 0
	}
	return start, end
}
