// Package share builds social share text and intent links for a meme.
package share

import (
	"net/url"
	"strings"
	"unicode"
)

// Share endpoints.
const (
	TwitterIntentURL = "https://twitter.com/intent/tweet?text="
	LinkedInShareURL = "https://www.linkedin.com/sharing/share-offsite/?url="
)

// BaseHashtags precede the topic hashtag.
const BaseHashtags = "#AIMemes #TechHumor #DevLife"

// Hashtags returns the fixed hashtags followed by the topic as a tag with
// all whitespace removed.
func Hashtags(topic string) string {
	tag := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, topic)
	return BaseHashtags + " #" + tag
}

// Text returns the post body: both captions, a blank line, then hashtags.
func Text(top, bottom, topic string) string {
	return top + "\n" + bottom + "\n\n" + Hashtags(topic)
}

// TwitterURL returns a tweet intent link prefilled with text.
func TwitterURL(text string) string {
	return TwitterIntentURL + EncodeComponent(text)
}

// LinkedInURL returns a LinkedIn share link for pageURL.
func LinkedInURL(pageURL string) string {
	return LinkedInShareURL + EncodeComponent(pageURL)
}

// EncodeComponent escapes s the way browsers escape URI components:
// spaces become %20 and the marks -_.!~*'() are left alone.
func EncodeComponent(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	for _, r := range []string{"!", "'", "(", ")", "*"} {
		e = strings.ReplaceAll(e, url.QueryEscape(r), r)
	}
	return e
}

// Links is the share payload returned by the CLI and HTTP API.
type Links struct {
	Text     string `json:"text"`
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
}

// For builds the share text and both links. pageURL is the public address
// of the meme; LinkedIn is left empty without one.
func For(top, bottom, topic, pageURL string) Links {
	text := Text(top, bottom, topic)
	l := Links{Text: text, Twitter: TwitterURL(text)}
	if pageURL != "" {
		l.LinkedIn = LinkedInURL(pageURL)
	}
	return l
}
