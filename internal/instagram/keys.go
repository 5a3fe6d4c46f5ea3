package instagram

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	usernamePattern  = regexp.MustCompile(`instagram\.com/([A-Za-z0-9._]+)`)
	shortcodePattern = regexp.MustCompile(`/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
)

// Path segments that can follow instagram.com/ without being a username.
var reservedSegments = map[string]bool{
	"p": true, "reel": true, "reels": true, "tv": true,
	"explore": true, "stories": true, "accounts": true,
}

// UsernameFromURL extracts the account username from a profile URL such as
// https://www.instagram.com/someuser/?hl=en.
func UsernameFromURL(accountURL string) (string, error) {
	match := usernamePattern.FindStringSubmatch(accountURL)
	if match == nil {
		return "", fmt.Errorf("no username in account url %q", accountURL)
	}
	username := strings.TrimSuffix(match[1], ".")
	if username == "" || reservedSegments[strings.ToLower(username)] {
		return "", fmt.Errorf("no username in account url %q", accountURL)
	}
	return username, nil
}

// ShortcodeFromLink extracts the post shortcode from a post, reel or tv URL.
func ShortcodeFromLink(link string) (string, error) {
	match := shortcodePattern.FindStringSubmatch(link)
	if match == nil {
		return "", fmt.Errorf("no shortcode in post link %q", link)
	}
	return match[1], nil
}

// CanonicalPostLink rewrites any post URL variant to the single form stored
// as the natural key, so reel and tv URLs of the same post collapse.
func CanonicalPostLink(link string) (string, error) {
	shortcode, err := ShortcodeFromLink(link)
	if err != nil {
		return "", err
	}
	return "https://www.instagram.com/p/" + shortcode + "/", nil
}
