package app

import (
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/offprint/offprint/internal/chapter"
	"github.com/offprint/offprint/internal/epub"
	"github.com/offprint/offprint/internal/sanitize"
)

// writeChapterPDF renders chapters as a minimal companion PDF: article title,
// bold chapter headings, paragraphs as MultiCell blocks. It is intentionally
// plain and does not try to reproduce the EPUB layout. Core fonts cover
// cp1252, so text goes through the built-in unicode translator.
func writeChapterPDF(chapters []chapter.Chapter, meta epub.Metadata, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(meta.Title, true)
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(meta.Title), "", "L", false)
	if meta.Author != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, tr(meta.Author), "", "L", false)
	}
	pdf.Ln(4)

	for i, ch := range chapters {
		if i > 0 {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(ch.Title), "", "L", false)
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)

		lines := strings.Split(sanitize.PlainText(ch.BodyHTML), "\n")
		// A heading-led chapter repeats its title as the first text block.
		if len(lines) > 0 && strings.TrimSpace(lines[0]) == strings.TrimSpace(ch.Title) {
			lines = lines[1:]
		}
		for _, line := range lines {
			s := strings.TrimSpace(line)
			if s == "" {
				pdf.Ln(3)
				continue
			}
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			pdf.Ln(2)
		}
	}

	return pdf.OutputFileAndClose(outPath)
}
