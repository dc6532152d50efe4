// Package xurl parses and normalizes X/Twitter URLs.
package xurl

import (
	"regexp"
	"strings"
)

// Kind is the type of page an X URL points at.
type Kind string

const (
	KindTweet   Kind = "tweet"
	KindProfile Kind = "profile"
	KindUnknown Kind = "unknown"
)

var (
	tweetPattern   = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:x|twitter)\.com/([^/?#]+)/status(?:es)?/(\d+)`)
	profilePattern = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:x|twitter)\.com/([^/?#]+)/?$`)
)

// Parsed holds the components extracted from an X URL.
type Parsed struct {
	Username string
	TweetID  string
	Kind     Kind
}

// Parse extracts the username and tweet ID from rawURL.
func Parse(rawURL string) Parsed {
	u := strings.TrimSpace(rawURL)
	if m := tweetPattern.FindStringSubmatch(u); m != nil {
		return Parsed{Username: m[1], TweetID: m[2], Kind: KindTweet}
	}
	if m := profilePattern.FindStringSubmatch(u); m != nil {
		return Parsed{Username: m[1], Kind: KindProfile}
	}
	return Parsed{Kind: KindUnknown}
}

// Normalize rewrites twitter.com hosts to x.com.
func Normalize(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	u = strings.Replace(u, "://mobile.twitter.com", "://x.com", 1)
	u = strings.Replace(u, "://www.twitter.com", "://x.com", 1)
	u = strings.Replace(u, "://twitter.com", "://x.com", 1)
	return u
}
