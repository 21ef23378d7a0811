package telegram

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"specials", "a_b*c[d](e)", `a\_b\*c\[d\]\(e\)`},
		{"dot_and_bang", "Done. Really!", `Done\. Really\!`},
		{"backslash", `a\b`, `a\\b`},
		{"blank", "   ", "   "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EscapeMarkdownV2(tc.in); got != tc.want {
				t.Fatalf("EscapeMarkdownV2(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
