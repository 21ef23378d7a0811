package rewrite

import (
	"strings"
	"testing"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(DefaultValidatorConfig())
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	return v
}

func TestValidateTextBoundaries(t *testing.T) {
	v := newTestValidator(t)
	max := DefaultValidatorConfig().MaxTextChars

	cases := []struct {
		name string
		text string
		want Code
	}{
		{name: "empty", text: "", want: CodeEmptyInput},
		{name: "blank", text: "   \n\t", want: CodeEmptyInput},
		{name: "two_chars", text: "ab", want: CodeTooShort},
		{name: "three_chars", text: "abc", want: ""},
		{name: "at_max", text: strings.Repeat("a", max), want: ""},
		{name: "over_max", text: strings.Repeat("a", max+1), want: CodeTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.text, nil)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate(%q) = %v, want nil", tc.name, err)
				}
				return
			}
			if err == nil || err.Code != tc.want {
				t.Fatalf("Validate(%q) = %v, want code %s", tc.name, err, tc.want)
			}
		})
	}
}

func TestValidateCountsRunesNotBytes(t *testing.T) {
	v := newTestValidator(t)
	// Three Cyrillic runes, six bytes.
	if err := v.Validate("привет"[:6], nil); err != nil {
		t.Fatalf("Validate() = %v, want nil for 3 runes", err)
	}
}

func TestValidateSpamSignals(t *testing.T) {
	v := newTestValidator(t)

	t.Run("pattern_match_rejects", func(t *testing.T) {
		err := v.Validate("Заработок без вложений уже сегодня", nil)
		if err == nil || err.Code != CodeProhibitedContent {
			t.Fatalf("Validate() = %v, want prohibited_content", err)
		}
	})

	t.Run("single_medium_passes", func(t *testing.T) {
		// High capitalization alone is only one medium signal.
		err := v.Validate("BUY NOW BEST OFFER EVER LIMITED", nil)
		if err != nil {
			t.Fatalf("Validate() = %v, want nil for single medium signal", err)
		}
	})

	t.Run("two_mediums_reject", func(t *testing.T) {
		err := v.Validate("GET RICH QUICK NOW FRIENDS t.me/x t.me/y", nil)
		if err == nil || err.Code != CodeProhibitedContent {
			t.Fatalf("Validate() = %v, want prohibited_content for combined signals", err)
		}
	})
}

func TestValidateMedia(t *testing.T) {
	v := newTestValidator(t)
	maxSize := DefaultValidatorConfig().MaxFileSize

	cases := []struct {
		name  string
		media *MediaDescriptor
		want  Code
	}{
		{name: "photo_ok", media: &MediaDescriptor{Type: MediaPhoto, FileID: "f1", FileSize: 1024}, want: ""},
		{name: "unknown_type", media: &MediaDescriptor{Type: "poll", FileID: "f1"}, want: CodeUnsupportedMediaType},
		{name: "sticker_not_publishable", media: &MediaDescriptor{Type: MediaSticker, FileID: "f1"}, want: CodeUnsupportedMediaType},
		{name: "too_large", media: &MediaDescriptor{Type: MediaVideo, FileID: "f1", FileSize: maxSize + 1}, want: CodeFileTooLarge},
		{name: "group_item_too_large", media: &MediaDescriptor{
			Type:  MediaGroup,
			Items: []MediaDescriptor{{Type: MediaPhoto, FileID: "a"}, {Type: MediaVideo, FileID: "b", FileSize: maxSize + 1}},
		}, want: CodeFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate("valid text", tc.media)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Code != tc.want {
				t.Fatalf("Validate() = %v, want code %s", err, tc.want)
			}
		})
	}
}
