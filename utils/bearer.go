package utils

import "strings"

// ExtractTokenFromHeader returns the credential of an "Authorization: Bearer <token>" header.
func ExtractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
