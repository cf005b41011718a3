// Package httputil provides HTTP plumbing shared by the image and caption
// clients.
//
//   - [Retry]: retry with exponential backoff for errors wrapped in
//     [RetryableError]
//   - [Transport]: a RoundTripper that sets the User-Agent and reports every
//     request to the observability HTTP hooks
//
// Response caching lives in package cache; clients combine both:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
package httputil
