// Package meme defines the values shared by every memeforge component: the
// text [Style] applied to captions and the [Record] kept in history.
//
// Styles can be written as a compact shorthand, parsed by [ParseStyle]:
//
//	64px Impact fill #fff stroke 4px #000
//	"Comic Sans MS" 36px stroke 0
//
// Tokens may appear in any order; anything not mentioned keeps the value
// of the base style.
package meme
