package rewrite

import (
	"testing"
)

func TestExtractLinksClassifiesByKind(t *testing.T) {
	text := "see https://example.com or mail a@b.com, call +79991234567, ping @someone"
	spans := []EntitySpan{
		{Offset: 4, Length: 19, Kind: EntityURL},
		{Offset: 32, Length: 7, Kind: EntityEmail},
		{Offset: 46, Length: 12, Kind: EntityPhoneNumber},
		{Offset: 65, Length: 8, Kind: EntityMention},
	}
	got := ExtractLinks(text, spans)

	if len(got.URLs) != 1 || got.URLs[0] != "https://example.com" {
		t.Fatalf("URLs = %v, want [https://example.com]", got.URLs)
	}
	if len(got.Emails) != 1 || got.Emails[0] != "a@b.com" {
		t.Fatalf("Emails = %v, want [a@b.com]", got.Emails)
	}
	if len(got.PhoneNumbers) != 1 || got.PhoneNumbers[0] != "+79991234567" {
		t.Fatalf("PhoneNumbers = %v, want [+79991234567]", got.PhoneNumbers)
	}
	if len(got.Mentions) != 1 || got.Mentions[0] != "@someone" {
		t.Fatalf("Mentions = %v, want [@someone]", got.Mentions)
	}
	if got.TotalLinks != 4 || !got.HasLinks {
		t.Fatalf("TotalLinks = %d HasLinks = %v, want 4/true", got.TotalLinks, got.HasLinks)
	}
}

func TestExtractLinksTextLinkPairs(t *testing.T) {
	text := "read the docs here"
	spans := []EntitySpan{
		{Offset: 9, Length: 4, Kind: EntityTextLink, URL: "https://docs.example.com"},
	}
	got := ExtractLinks(text, spans)
	if len(got.TextLinks) != 1 {
		t.Fatalf("TextLinks = %v, want one pair", got.TextLinks)
	}
	if got.TextLinks[0].Text != "docs" || got.TextLinks[0].URL != "https://docs.example.com" {
		t.Fatalf("TextLinks[0] = %+v, want docs -> https://docs.example.com", got.TextLinks[0])
	}
}

func TestExtractLinksUTF16Offsets(t *testing.T) {
	// Offsets are UTF-16 code units: the Cyrillic prefix is 7 units
	// ("привет" + space), not 13 bytes.
	text := "привет @юзер"
	spans := []EntitySpan{
		{Offset: 7, Length: 5, Kind: EntityMention},
	}
	got := ExtractLinks(text, spans)
	if len(got.Mentions) != 1 || got.Mentions[0] != "@юзер" {
		t.Fatalf("Mentions = %v, want [@юзер]", got.Mentions)
	}
}

func TestExtractLinksIgnoresBadSpans(t *testing.T) {
	text := "short"
	spans := []EntitySpan{
		{Offset: -1, Length: 3, Kind: EntityURL},
		{Offset: 0, Length: 100, Kind: EntityURL},
		{Offset: 0, Length: 5, Kind: "bold"},
	}
	got := ExtractLinks(text, spans)
	if got.TotalLinks != 0 || got.HasLinks {
		t.Fatalf("got %+v, want no links", got)
	}
}

func TestRecountInvariant(t *testing.T) {
	l := ExtractedLinks{
		URLs:      []string{"https://a", "https://b"},
		Emails:    []string{"x@y.z"},
		Mentions:  []string{"@m"},
		TextLinks: []TextLink{{Text: "t", URL: "u"}},
	}
	l.Recount()
	wantTotal := len(l.URLs) + len(l.TextLinks) + len(l.Emails) + len(l.PhoneNumbers) + len(l.Mentions)
	if l.TotalLinks != wantTotal {
		t.Fatalf("TotalLinks = %d, want %d", l.TotalLinks, wantTotal)
	}
	if l.HasLinks != (l.TotalLinks > 0) {
		t.Fatalf("HasLinks = %v inconsistent with TotalLinks = %d", l.HasLinks, l.TotalLinks)
	}

	empty := ExtractedLinks{}
	empty.Recount()
	if empty.TotalLinks != 0 || empty.HasLinks {
		t.Fatalf("empty Recount() = %+v, want zero/false", empty)
	}
}
