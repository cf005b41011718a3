package integrations

import (
	"net/http"
	"time"

	"github.com/matzehuels/memeforge/pkg/httputil"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

const httpTimeout = 10 * time.Second

// MaxBodySize caps downloaded payloads (template images are well below it).
const MaxBodySize = 20 << 20

// Sentinels for upstream failures. They carry error codes, so callers can
// return them unchanged and still get the right HTTP status and exit code.
var (
	ErrNotFound        = errs.New(errs.ErrCodeNotFound, "not found upstream")
	ErrNetwork         = errs.New(errs.ErrCodeNetwork, "upstream request failed")
	ErrRateLimited     = errs.New(errs.ErrCodeRateLimited, "rate limit exceeded")
	ErrPaymentRequired = errs.New(errs.ErrCodePaymentRequired, "payment required")
	ErrTooLarge        = errs.New(errs.ErrCodeInvalidInput, "response too large")
)

// NewHTTPClient creates an HTTP client with a standard timeout and the
// instrumented transport.
func NewHTTPClient() *http.Client {
	return httputil.NewClient(httpTimeout)
}
