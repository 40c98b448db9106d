package compactindex

import "testing"

func TestCacheSlugForURL(t *testing.T) {
	slug, err := cacheSlugForURL("https://rubygems.org")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := slug[:len("rubygems.org.443.")], "rubygems.org.443."; got != want {
		t.Errorf("cacheSlugForURL = %q, want prefix %q", slug, want)
	}
	if len(slug) != len("rubygems.org.443.")+8 {
		t.Errorf("expected an 8-character hash suffix, got %q", slug)
	}
}

func TestCacheSlugSanitizesHost(t *testing.T) {
	slug, err := cacheSlugForURL("http://my~mirror.internal:8080")
	if err != nil {
		t.Fatal(err)
	}
	want := "my-mirror.internal.8080."
	if len(slug) < len(want) || slug[:len(want)] != want {
		t.Errorf("cacheSlugForURL = %q, want prefix %q", slug, want)
	}
}

func TestCacheSlugIsDeterministic(t *testing.T) {
	a, err := cacheSlugForURL("https://rubygems.org")
	if err != nil {
		t.Fatal(err)
	}
	b, err := cacheSlugForURL("https://rubygems.org")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected deterministic slug, got %q and %q", a, b)
	}
}
