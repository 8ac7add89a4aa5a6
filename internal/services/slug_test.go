package services_test

import (
	"testing"

	"github.com/inkpost/blogapi/internal/services"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World!":          "hello-world",
		"hello world":           "hello-world",
		"  Go   is  fun  ":      "go-is-fun",
		"snake_case_title":      "snakecasetitle",
		"Release v2.0":          "release-v20",
		"Release v2.0 -- notes": "release-v20-notes",
		"Node.js tips":          "nodejs-tips",
		"Tom & Jerry":           "tom-and-jerry",
		"Crème brûlée":          "creme-brulee",
		"it’s done":             "its-done",
	}
	for title, want := range cases {
		if got := services.Slugify(title); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestSlugifyKeepsDistinctTitlesApart(t *testing.T) {
	if a, b := services.Slugify("v2.0"), services.Slugify("v2 0"); a == b {
		t.Fatalf("%q and %q should not collide", a, b)
	}
}
