package instagram

import "testing"

func TestUsernameFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "plain profile", url: "https://www.instagram.com/someuser/", want: "someuser"},
		{name: "with query", url: "https://instagram.com/some.user?hl=en", want: "some.user"},
		{name: "no scheme", url: "instagram.com/user_99/", want: "user_99"},
		{name: "post url is not a profile", url: "https://www.instagram.com/p/ABC123/", wantErr: true},
		{name: "unrelated url", url: "https://example.com/someuser", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := UsernameFromURL(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("UsernameFromURL(%q) = %q, want error", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("UsernameFromURL(%q): %v", tc.url, err)
			}
			if got != tc.want {
				t.Fatalf("UsernameFromURL(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestShortcodeFromLink(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "post", link: "https://www.instagram.com/p/DHx_1aBcDe/", want: "DHx_1aBcDe"},
		{name: "reel", link: "https://www.instagram.com/reel/Xy-9_zz/", want: "Xy-9_zz"},
		{name: "tv", link: "https://www.instagram.com/tv/AbCdEf/?img_index=2", want: "AbCdEf"},
		{name: "profile url", link: "https://www.instagram.com/someuser/", wantErr: true},
		{name: "empty", link: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ShortcodeFromLink(tc.link)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ShortcodeFromLink(%q) = %q, want error", tc.link, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ShortcodeFromLink(%q): %v", tc.link, err)
			}
			if got != tc.want {
				t.Fatalf("ShortcodeFromLink(%q) = %q, want %q", tc.link, got, tc.want)
			}
		})
	}
}

func TestCanonicalPostLink_CollapsesVariants(t *testing.T) {
	variants := []string{
		"https://www.instagram.com/p/ABC123/",
		"https://www.instagram.com/reel/ABC123/",
		"https://instagram.com/tv/ABC123?utm_source=share",
	}
	for _, variant := range variants {
		got, err := CanonicalPostLink(variant)
		if err != nil {
			t.Fatalf("CanonicalPostLink(%q): %v", variant, err)
		}
		if got != "https://www.instagram.com/p/ABC123/" {
			t.Fatalf("CanonicalPostLink(%q) = %q", variant, got)
		}
	}
}
