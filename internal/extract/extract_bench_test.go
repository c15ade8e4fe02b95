package extract

import (
	"strings"
	"testing"
)

// Benchmark Extract on representative HTML sizes and structures.
func BenchmarkExtract(b *testing.B) {
	small := []byte("<html><head><title>t</title></head><body><main>" + paragraphs(4) + "</main></body></html>")
	medium := makeHTML(50, 60)
	large := makeHTML(200, 200)

	e := &Extractor{}
	b.Run("small", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = e.Extract(small)
		}
	})
	b.Run("medium", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = e.Extract(medium)
		}
	})
	b.Run("large", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = e.Extract(large)
		}
	})
}

func makeHTML(paras int, itemsPerList int) []byte {
	builder := new(strings.Builder)
	builder.WriteString("<html><head><title>demo</title></head><body><main>")
	for i := 0; i < paras; i++ {
		builder.WriteString("<h2>Heading</h2><p>")
		builder.WriteString(sampleText)
		builder.WriteString("</p>")
	}
	builder.WriteString("<ul>")
	for i := 0; i < itemsPerList; i++ {
		builder.WriteString("<li>")
		builder.WriteString(sampleText)
		builder.WriteString("</li>")
	}
	builder.WriteString("</ul></main></body></html>")
	return []byte(builder.String())
}
