package services

import (
	"fmt"
	"strings"
)

// PlaceholderImageURL returns a stable Picsum Photos URL for seed, so the same
// image block always shows the same placeholder.
func PlaceholderImageURL(seed string, width, height int) string {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 450
	}
	return fmt.Sprintf("https://picsum.photos/seed/%d/%d/%d", hashString(seed), width, height)
}

// ImageQuery reduces a caption or alt text to a short seed phrase.
func ImageQuery(caption string) string {
	caption = strings.ToLower(caption)
	for _, filler := range []string{"a photo of", "an image showing", "illustration of", "picture of"} {
		caption = strings.ReplaceAll(caption, filler, "")
	}
	words := strings.Fields(caption)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}

// hashString creates a simple hash from a string for deterministic image selection
func hashString(s string) int {
	hash := 0
	for _, char := range s {
		hash = (hash << 5) - hash + int(char)
	}
	if hash < 0 {
		hash = -hash
	}
	return hash % 10000
}
