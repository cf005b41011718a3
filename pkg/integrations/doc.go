// Package integrations provides HTTP clients for the external services
// memeforge talks to.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [imgflip]: meme template catalogue (random base images)
//   - [caption]: AI caption generation (OpenAI-compatible gateway, Gemini)
//
// # Shared Infrastructure
//
// [Client] is embedded by every service client and provides:
//   - JSON GET/POST helpers with default headers
//   - response caching through a [cache.Cache] backend ([Client.Cached])
//   - raw byte downloads cached by URL ([Client.CachedBytes])
//   - retry with exponential backoff for transient failures
//
// Status codes are mapped to coded sentinel errors: [ErrNotFound] (404),
// [ErrRateLimited] (429), [ErrPaymentRequired] (402) and [ErrNetwork]
// (everything else, retryable for 5xx).
//
// [imgflip]: github.com/matzehuels/memeforge/pkg/integrations/imgflip
// [caption]: github.com/matzehuels/memeforge/pkg/integrations/caption
// [cache.Cache]: github.com/matzehuels/memeforge/pkg/cache.Cache
package integrations
