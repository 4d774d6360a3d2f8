package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanThumbnail(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"Escaped JSON array", `["https:\/\/c1.neweggimages.com\/a.jpg","https://x.example/b.png"]`, "https://c1.neweggimages.com/a.jpg"},
		{"Quoted URL", `"https://x.example/card.webp"`, "https://x.example/card.webp"},
		{"Local path", " /images/products/card.jpg ", "/images/products/card.jpg"},
		{"URL without image extension", "https://cdn.example/image?id=3, https://cdn.example/other", "https://cdn.example/image?id=3"},
		{"Comma list of paths", "card-front.jpg, card-back.jpg", "card-front.jpg"},
		{"Empty array", `[""]`, ""},
		{"Blank", "   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanThumbnail(tc.input))
		})
	}
}

func TestProductThumbnailAndRoleImage(t *testing.T) {
	images := []Image{
		{Path: `["\/img\/front.jpg"]`, Role: ImageRoleGallery},
		{Path: "/img/thumb.jpg", Role: ImageRoleThumbnail},
	}

	assert.Equal(t, "/img/front.jpg", ProductThumbnail(images))
	assert.Equal(t, "", ProductThumbnail(nil))
	assert.Equal(t, "/img/thumb.jpg", RoleImage(images, ImageRoleThumbnail))
	assert.Equal(t, "", RoleImage(images, "hero"))
}
