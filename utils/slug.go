package utils

import "github.com/google/uuid"

// GenerateSlug returns a random 8-character slug derived from a UUID.
func GenerateSlug() string {
	return uuid.New().String()[:8]
}
