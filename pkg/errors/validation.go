package errors

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTopicLength bounds the topic forwarded to the caption model.
const MaxTopicLength = 200

// NormalizeTopic collapses runs of whitespace, including tabs and
// newlines, into single spaces and trims the ends.
func NormalizeTopic(topic string) string {
	return strings.Join(strings.Fields(topic), " ")
}

// ValidateTopic validates a meme topic before it is sent to the caption generator.
//
// The topic is checked in its normalized form (see NormalizeTopic):
//   - Not empty
//   - At most MaxTopicLength characters
//   - No control characters
func ValidateTopic(topic string) error {
	normalized := NormalizeTopic(topic)
	if normalized == "" {
		return New(ErrCodeInvalidTopic, "topic is required")
	}
	if utf8.RuneCountInString(normalized) > MaxTopicLength {
		return New(ErrCodeInvalidTopic, "topic too long (max %d characters)", MaxTopicLength)
	}
	for _, r := range normalized {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTopic, "topic contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates an image URL for safety.
// It ensures the URL parses and has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must have a host")
	}
	return nil
}

// ValidateFilename validates an output filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}
	if strings.Contains(filename, "..") {
		return New(ErrCodeInvalidPath, "filename cannot contain path traversal sequences (..)")
	}
	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid characters")
		}
	}
	return nil
}

// ValidateID validates a meme identifier received from a user (CLI arg or URL path).
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "meme id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "meme id too long (max 64 characters)")
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return New(ErrCodeInvalidInput, "meme id contains invalid characters: %q", r)
		}
	}
	return nil
}
