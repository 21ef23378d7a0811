package rewrite

import (
	"fmt"
	"strings"
)

// ComposePrompt merges the agent's base instructions with contextual
// augmentations. Block order is fixed: base, then media-group framing,
// then link-preservation rules. The ordering is deliberate so that model
// behavior stays reproducible across calls.
func ComposePrompt(base string, media *MediaDescriptor, links *ExtractedLinks) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	if media.IsGroup() {
		b.WriteString("\n\n")
		b.WriteString(mediaGroupBlock(len(media.Items)))
	}
	if links != nil && links.HasLinks {
		b.WriteString("\n\n")
		b.WriteString(linksBlock(links))
	}
	return b.String()
}

func mediaGroupBlock(itemCount int) string {
	return fmt.Sprintf(
		"The text belongs to an album of %d media items posted together. "+
			"Rewrite it as a single caption for the whole album and keep "+
			"album-level coherence: do not split it into per-item fragments.",
		itemCount)
}

func linksBlock(links *ExtractedLinks) string {
	var b strings.Builder
	b.WriteString("The original text contains the following entities. Preserve every one of them verbatim in the rewritten text:\n")
	if len(links.URLs) > 0 {
		b.WriteString("Direct URLs:\n")
		for _, u := range links.URLs {
			b.WriteString("- " + u + "\n")
		}
	}
	if len(links.TextLinks) > 0 {
		b.WriteString("Hyperlinked text (keep each text/target pair intact):\n")
		for _, tl := range links.TextLinks {
			b.WriteString(fmt.Sprintf("- %q -> %s\n", tl.Text, tl.URL))
		}
	}
	if len(links.Emails) > 0 {
		b.WriteString("Email addresses:\n")
		for _, e := range links.Emails {
			b.WriteString("- " + e + "\n")
		}
	}
	if len(links.PhoneNumbers) > 0 {
		b.WriteString("Phone numbers:\n")
		for _, p := range links.PhoneNumbers {
			b.WriteString("- " + p + "\n")
		}
	}
	if len(links.Mentions) > 0 {
		b.WriteString("Mentions:\n")
		for _, m := range links.Mentions {
			b.WriteString("- " + m + "\n")
		}
	}
	b.WriteString("Do not rewrite, shorten, or drop any URL, hyperlink pair, email, phone number, or mention.")
	return b.String()
}
