package models

import (
	"regexp"
	"strings"
)

var (
	imageURLPattern = regexp.MustCompile(`(?i)https?://[^"'\s,]+?\.(?:jpg|jpeg|png|webp|gif)`)
	anyURLPattern   = regexp.MustCompile(`(?i)https?://[^\s"']+`)
)

// CleanThumbnail normalizes the messy shapes scrapers leave in image paths:
// escaped slashes, quoted or bracketed arrays and comma lists. It returns
// the first usable URL or path, or "" when nothing is left.
func CleanThumbnail(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.ReplaceAll(t, `\/`, "/")

	for len(t) >= 2 && ((t[0] == '[' && t[len(t)-1] == ']') || (t[0] == '"' && t[len(t)-1] == '"')) {
		t = strings.TrimSpace(t[1 : len(t)-1])
	}
	if t == "" {
		return ""
	}

	if m := imageURLPattern.FindString(t); m != "" {
		return m
	}

	var parts []string
	for _, p := range strings.Split(t, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	for _, p := range parts {
		if m := anyURLPattern.FindString(p); m != "" {
			return m
		}
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// ProductThumbnail returns the cleaned path of the product's first image by
// sort order. images must already be ordered.
func ProductThumbnail(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return CleanThumbnail(images[0].Path)
}

// RoleImage returns the path of the first image with the given role.
func RoleImage(images []Image, role string) string {
	for _, img := range images {
		if img.Role == role {
			return img.Path
		}
	}
	return ""
}
