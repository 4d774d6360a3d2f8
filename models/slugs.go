package models

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

// SlugTaken reports whether a slug is already used.
type SlugTaken func(ctx context.Context, candidate string) (bool, error)

// UniqueSlug slugifies base and probes base, base-1, base-2, ... until
// taken reports a free candidate.
func UniqueSlug(ctx context.Context, base string, fallback string, taken SlugTaken) (string, error) {
	root := slug.Make(base)
	if root == "" {
		root = fallback
	}

	candidate := root
	for i := 1; ; i++ {
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, i)
	}
}
