// Package epub assembles chapters and document metadata into an EPUB 2.0
// archive. The output follows the OCF layout: a stored mimetype entry first,
// then the container pointer, the OPF package document, the NCX navigation
// map and one XHTML content document per chapter.
package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/offprint/offprint/internal/chapter"
)

var (
	// ErrNoChapters rejects a build with nothing to package. The splitter
	// always yields at least one chapter, so hitting this is a programmer
	// error upstream.
	ErrNoChapters = errors.New("no chapters to package")

	// ErrArchiveCreate wraps failures to create or write an archive entry.
	ErrArchiveCreate = errors.New("create archive entry")

	// ErrArchiveSerialize wraps failures to finalize the archive bytes.
	ErrArchiveSerialize = errors.New("serialize archive")
)

const mimetypeLiteral = "application/epub+zip"

// Metadata carries the document-level fields embedded in the package
// metadata. An empty Author means unknown and omits the creator element.
type Metadata struct {
	Title       string
	Author      string
	Language    string
	SourceURL   string
	Description string
}

// Build packages the chapters into a complete EPUB archive and returns its
// bytes. Every build mints a fresh urn:uuid identifier.
func Build(chapters []chapter.Chapter, meta Metadata) ([]byte, error) {
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	id := "urn:uuid:" + uuid.NewString()
	files := chapterFiles(chapters)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// The mimetype entry must be the first in the archive and stored
	// uncompressed so readers can sniff it at a fixed offset.
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, fmt.Errorf("%w: mimetype: %v", ErrArchiveCreate, err)
	}
	if _, err := mw.Write([]byte(mimetypeLiteral)); err != nil {
		return nil, fmt.Errorf("%w: mimetype: %v", ErrArchiveCreate, err)
	}

	type entry struct {
		name string
		body string
	}
	entries := []entry{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", buildOPF(chapters, files, meta, id)},
		{"OEBPS/toc.ncx", buildNCX(chapters, files, meta, id)},
	}
	for i, ch := range chapters {
		entries = append(entries, entry{"OEBPS/" + files[i], chapterXHTML(ch, language(meta))})
	}

	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchiveCreate, e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchiveCreate, e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveSerialize, err)
	}
	return buf.Bytes(), nil
}

// chapterFiles names the content documents. A single chapter is stored as
// content.xhtml; multi-chapter documents are numbered.
func chapterFiles(chapters []chapter.Chapter) []string {
	if len(chapters) == 1 {
		return []string{"content.xhtml"}
	}
	names := make([]string, len(chapters))
	for i := range chapters {
		names[i] = fmt.Sprintf("chapter-%d.xhtml", i)
	}
	return names
}

func language(meta Metadata) string {
	if meta.Language != "" {
		return meta.Language
	}
	return "en"
}

// publisher derives the publisher field from the source host.
func publisher(meta Metadata) string {
	if meta.SourceURL != "" {
		if u, err := url.Parse(meta.SourceURL); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return "Unknown"
}
