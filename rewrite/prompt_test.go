package rewrite

import (
	"strings"
	"testing"
)

func TestComposePromptBaseOnly(t *testing.T) {
	got := ComposePrompt("Rewrite in a friendly tone.", nil, nil)
	if got != "Rewrite in a friendly tone." {
		t.Fatalf("ComposePrompt() = %q, want base unchanged", got)
	}
}

func TestComposePromptBlockOrdering(t *testing.T) {
	media := &MediaDescriptor{
		Type:  MediaGroup,
		Items: []MediaDescriptor{{Type: MediaPhoto, FileID: "a"}, {Type: MediaPhoto, FileID: "b"}, {Type: MediaVideo, FileID: "c"}},
	}
	links := &ExtractedLinks{URLs: []string{"https://example.com"}}
	links.Recount()

	got := ComposePrompt("Base instructions.", media, links)

	basePos := strings.Index(got, "Base instructions.")
	albumPos := strings.Index(got, "album of 3 media items")
	linksPos := strings.Index(got, "https://example.com")
	if basePos < 0 || albumPos < 0 || linksPos < 0 {
		t.Fatalf("ComposePrompt() missing a block:\n%s", got)
	}
	if !(basePos < albumPos && albumPos < linksPos) {
		t.Fatalf("block order = base@%d album@%d links@%d, want base < album < links", basePos, albumPos, linksPos)
	}
}

func TestComposePromptLinksBlockEnumeratesCategories(t *testing.T) {
	links := &ExtractedLinks{
		URLs:         []string{"https://example.com"},
		TextLinks:    []TextLink{{Text: "docs", URL: "https://docs.example.com"}},
		Emails:       []string{"a@b.com"},
		PhoneNumbers: []string{"+79991234567"},
		Mentions:     []string{"@someone"},
	}
	links.Recount()

	got := ComposePrompt("Base.", nil, links)
	for _, want := range []string{
		"https://example.com",
		`"docs" -> https://docs.example.com`,
		"a@b.com",
		"+79991234567",
		"@someone",
		"verbatim",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("ComposePrompt() missing %q:\n%s", want, got)
		}
	}
}

func TestComposePromptNoLinksNoBlock(t *testing.T) {
	links := &ExtractedLinks{}
	links.Recount()
	got := ComposePrompt("Base.", nil, links)
	if strings.Contains(got, "Preserve") {
		t.Fatalf("ComposePrompt() added a links block for empty links:\n%s", got)
	}
}
