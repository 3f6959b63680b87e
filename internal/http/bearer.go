package http

import "strings"

// ExtractBearerToken returns the token portion of an Authorization header, or
// "" when the header is absent or carries a different scheme. The scheme
// comparison is case-insensitive.
func ExtractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
