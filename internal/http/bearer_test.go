package http

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
	}{
		"canonical":        {"Bearer abc123", "abc123"},
		"lowercase scheme": {"bearer abc123", "abc123"},
		"uppercase scheme": {"BEARER abc123", "abc123"},
		"padded token":     {"Bearer  abc123 ", "abc123"},
		"empty header":     {"", ""},
		"wrong scheme":     {"Basic abc123", ""},
		"scheme only":      {"Bearer", ""},
	}

	for name, tc := range cases {
		if got := ExtractBearerToken(tc.header); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
