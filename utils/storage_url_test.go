package utils

import "testing"

func TestBuildObjectAccessURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "storage.googleapis.com")
	t.Setenv("GCS_BUCKET", "recicla-assets")

	got := BuildObjectAccessURL("products/bottle.png")
	want := "https://storage.googleapis.com/recicla-assets/products/bottle.png"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildObjectAccessURLWithBaseURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://cdn.example.com/assets/")

	got := BuildObjectAccessURL("products/bottle.png")
	want := "https://cdn.example.com/assets/products/bottle.png"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildObjectAccessURLFallsBackToKey(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "")
	t.Setenv("GCS_BUCKET", "")

	if got := BuildObjectAccessURL("products/bottle.png"); got != "products/bottle.png" {
		t.Errorf("expected raw key fallback; got %q", got)
	}
}

func TestExtractObjectKeyFromURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "")
	t.Setenv("GCS_URL", "")
	t.Setenv("GCS_BUCKET", "")

	cases := []struct {
		in   string
		want string
	}{
		{"https://storage.googleapis.com/recicla-assets/products/bottle.png", "products/bottle.png"},
		{"gs://recicla-assets/products/bottle.png", "products/bottle.png"},
		{"products/bottle.png", "products/bottle.png"},
		{"products/../secrets", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.in); got != tc.want {
			t.Errorf("ExtractObjectKeyFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
