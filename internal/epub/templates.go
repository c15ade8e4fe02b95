package epub

import (
	"fmt"
	"strings"
	"time"

	"github.com/offprint/offprint/internal/chapter"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// readingCSS is embedded into every content document. Deliberately small:
// reader devices override most of it anyway.
const readingCSS = `body { font-family: serif; line-height: 1.5; margin: 1em; }
h1, h2, h3 { font-family: sans-serif; line-height: 1.25; }
p { margin: 0 0 0.75em 0; }
blockquote { margin: 0.75em 2em; font-style: italic; }
ul, ol { margin: 0.75em 0 0.75em 1.5em; }`

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

// buildOPF renders the OPF 2.0 package document: Dublin Core metadata plus
// a manifest and spine listing every content file in chapter order.
func buildOPF(chapters []chapter.Chapter, files []string, meta Metadata, id string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
`)
	fmt.Fprintf(&b, "    <dc:identifier id=\"bookid\" opf:scheme=\"UUID\">%s</dc:identifier>\n", xmlEscape(id))
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", xmlEscape(meta.Title))
	if meta.Author != "" {
		fmt.Fprintf(&b, "    <dc:creator opf:role=\"aut\">%s</dc:creator>\n", xmlEscape(meta.Author))
	}
	fmt.Fprintf(&b, "    <dc:language>%s</dc:language>\n", xmlEscape(language(meta)))
	fmt.Fprintf(&b, "    <dc:date>%s</dc:date>\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "    <dc:publisher>%s</dc:publisher>\n", xmlEscape(publisher(meta)))
	if meta.Description != "" {
		fmt.Fprintf(&b, "    <dc:description>%s</dc:description>\n", xmlEscape(meta.Description))
	}
	if meta.SourceURL != "" {
		fmt.Fprintf(&b, "    <dc:source>%s</dc:source>\n", xmlEscape(meta.SourceURL))
	}
	b.WriteString(`  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
`)
	for i := range chapters {
		fmt.Fprintf(&b, "    <item id=\"chapter-%d\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", i, files[i])
	}
	b.WriteString(`  </manifest>
  <spine toc="ncx">
`)
	for i := range chapters {
		fmt.Fprintf(&b, "    <itemref idref=\"chapter-%d\"/>\n", i)
	}
	b.WriteString(`  </spine>
</package>
`)
	return b.String()
}

// buildNCX renders the NCX navigation map with one navPoint per chapter,
// playOrder following chapter indices.
func buildNCX(chapters []chapter.Chapter, files []string, meta Metadata, id string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE ncx PUBLIC "-//NISO//DTD ncx 2005-1//EN" "http://www.daisy.org/z3986/2005/ncx/">
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
`)
	fmt.Fprintf(&b, "    <meta name=\"dtb:uid\" content=\"%s\"/>\n", xmlEscape(id))
	b.WriteString(`    <meta name="dtb:depth" content="1"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
`)
	fmt.Fprintf(&b, "  <docTitle><text>%s</text></docTitle>\n", xmlEscape(meta.Title))
	b.WriteString("  <navMap>\n")
	for i, ch := range chapters {
		fmt.Fprintf(&b, `    <navPoint id="navpoint-%d" playOrder="%d">
      <navLabel><text>%s</text></navLabel>
      <content src="%s"/>
    </navPoint>
`, i+1, i+1, xmlEscape(ch.Title), files[i])
	}
	b.WriteString(`  </navMap>
</ncx>
`)
	return b.String()
}

// chapterXHTML wraps a chapter body in a complete XHTML 1.1 document with
// the embedded reading stylesheet. The body markup is inserted as-is; it is
// already well-formed XHTML by the time it reaches packaging.
func chapterXHTML(ch chapter.Chapter, lang string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
`)
	fmt.Fprintf(&b, "<html xmlns=\"http://www.w3.org/1999/xhtml\" xml:lang=\"%s\">\n", xmlEscape(lang))
	b.WriteString("<head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", xmlEscape(ch.Title))
	fmt.Fprintf(&b, "<style type=\"text/css\">\n%s\n</style>\n", readingCSS)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(ch.BodyHTML)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
