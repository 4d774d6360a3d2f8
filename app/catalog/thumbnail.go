package catalog

import (
	"io/fs"
	"path"
	"strings"
)

// sizeTags are the pre-rendered image sizes, best first.
var sizeTags = []string{"1200w", "800w", "400w", "orig", "thumb"}

// ThumbnailResolver upgrades a local image path to the best pre-rendered
// sibling that exists under the public directory.
type ThumbnailResolver struct {
	public fs.FS
}

func NewThumbnailResolver(public fs.FS) *ThumbnailResolver {
	return &ThumbnailResolver{public: public}
}

// Resolve returns "name-<tag>.ext" for the first tag whose file exists, or
// thumb unchanged.
func (t *ThumbnailResolver) Resolve(thumb string) string {
	if t == nil || t.public == nil || thumb == "" || strings.Contains(thumb, "://") {
		return thumb
	}
	ext := path.Ext(thumb)
	if ext == "" {
		return thumb
	}
	base := strings.TrimSuffix(thumb, ext)
	for _, tag := range sizeTags {
		candidate := base + "-" + tag + ext
		name := strings.TrimPrefix(candidate, "/")
		if !fs.ValidPath(name) {
			continue
		}
		if info, err := fs.Stat(t.public, name); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return thumb
}
