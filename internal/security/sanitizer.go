package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// markup matches anything an HTML tokenizer would read as a complete tag,
// comment or processing instruction.
var markup = regexp.MustCompile(`<[a-zA-Z/!?][^>]*>`)

// TextSanitizer turns user supplied text into plain text: every tag is
// dropped and entities are decoded back so the stored value is what the user
// typed minus the markup. Text without markup is only trimmed, so comparisons
// like "a<b" survive. Safe for concurrent use.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *TextSanitizer) Sanitize(in string) string {
	if !markup.MatchString(in) {
		return strings.TrimSpace(in)
	}
	out := s.policy.Sanitize(in)
	return strings.TrimSpace(html.UnescapeString(out))
}
