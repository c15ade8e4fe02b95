package app

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain title", in: "A Guide to Tides", want: "a-guide-to-tides"},
		{name: "punctuation collapses", in: "Hello, World! (2024)", want: "hello-world-2024"},
		{name: "leading and trailing junk", in: "  --Weird Title-- ", want: "weird-title"},
		{name: "non-ascii drops", in: "Päivää maailma", want: "p-iv-maailma"},
		{name: "empty falls back", in: "!!!", want: "page"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slugify(tc.in); got != tc.want {
				t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("A Guide to Tides"); got != "a-guide-to-tides.epub" {
		t.Fatalf("defaultOutputPath = %q", got)
	}
	if got := defaultOutputPath("Untitled"); got != "untitled.epub" {
		t.Fatalf("defaultOutputPath = %q", got)
	}
}
