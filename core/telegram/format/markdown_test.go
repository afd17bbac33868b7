package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	cases := map[string]string{
		"Выбрана дата: 10.11.2024":         "Выбрана дата: 10\\.11\\.2024",
		"10.11.2024 - 20.11.2024 (11 дн.)": "10\\.11\\.2024 \\- 20\\.11\\.2024 \\(11 дн\\.\\)",
		"a_b*c`d\\e":                       "a\\_b\\*c\\`d\\\\e",
		"plain":                            "plain",
	}
	for in, want := range cases {
		if got := EscapeMarkdownV2(in); got != want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", in, got, want)
		}
	}
}
