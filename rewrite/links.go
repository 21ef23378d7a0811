package rewrite

import (
	"unicode/utf16"
)

// Entity kinds, matching the transport's entity type names.
const (
	EntityURL         = "url"
	EntityTextLink    = "text_link"
	EntityEmail       = "email"
	EntityPhoneNumber = "phone_number"
	EntityMention     = "mention"
)

// EntitySpan is one transport-supplied entity: Offset and Length are in
// UTF-16 code units, as the Telegram Bot API defines them. URL is set
// only for text_link spans.
type EntitySpan struct {
	Offset int
	Length int
	Kind   string
	URL    string
}

// ExtractLinks classifies and slices entity spans out of text. It is
// pure and order-preserving within each category; spans of unknown kinds
// and spans falling outside the text are ignored. No reachability checks
// are performed.
func ExtractLinks(text string, spans []EntitySpan) ExtractedLinks {
	var out ExtractedLinks
	if text == "" || len(spans) == 0 {
		out.Recount()
		return out
	}
	encoded := utf16.Encode([]rune(text))
	for _, span := range spans {
		fragment, ok := sliceUTF16(encoded, span.Offset, span.Length)
		if !ok {
			continue
		}
		switch span.Kind {
		case EntityURL:
			out.URLs = append(out.URLs, fragment)
		case EntityTextLink:
			out.TextLinks = append(out.TextLinks, TextLink{Text: fragment, URL: span.URL})
		case EntityEmail:
			out.Emails = append(out.Emails, fragment)
		case EntityPhoneNumber:
			out.PhoneNumbers = append(out.PhoneNumbers, fragment)
		case EntityMention:
			out.Mentions = append(out.Mentions, fragment)
		}
	}
	out.Recount()
	return out
}

func sliceUTF16(encoded []uint16, offset, length int) (string, bool) {
	if offset < 0 || length <= 0 || offset+length > len(encoded) {
		return "", false
	}
	return string(utf16.Decode(encoded[offset : offset+length])), true
}
