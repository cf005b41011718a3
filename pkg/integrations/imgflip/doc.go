// Package imgflip provides a client for the imgflip meme template API.
//
// Only the public, unauthenticated endpoint is used:
//
//	GET https://api.imgflip.com/get_memes
//
// which returns the ~100 most popular templates. The list is cached for
// [cache.TTLHTTP] so repeated generations do not hit the API.
//
// [cache.TTLHTTP]: github.com/matzehuels/memeforge/pkg/cache.TTLHTTP
package imgflip
