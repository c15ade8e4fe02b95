package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// noLinguisticContent is the ISO 639-2 code declared by posts and pages that
// carry no language at all (emoji-only posts, for example). It is treated the
// same as a missing declaration.
const noLinguisticContent = "zxx"

// Primary reduces a declared language code to its BCP-47 primary subtag,
// e.g. "en-US" becomes "en" and "pt_BR" becomes "pt". Empty, whitespace-only
// and "zxx" codes resolve to fallback; an empty fallback resolves to "en".
func Primary(code, fallback string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, noLinguisticContent) {
		code = strings.TrimSpace(fallback)
	}
	if code == "" {
		return "en"
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	// Unparseable declarations still often lead with a usable subtag.
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
