package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

var errNotFound = errs.New(errs.ErrCodeNotFound, "not found")

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errs.ErrCodePaymentRequired:
		return http.StatusPaymentRequired
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrCodeImageNotReady:
		return http.StatusConflict
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	switch code.Class() {
	case errs.ClassInput:
		return http.StatusBadRequest
	case errs.ClassNotFound:
		return http.StatusNotFound
	case errs.ClassUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	code := errs.GetCode(err)
	status := statusFor(code)
	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		if code == "" {
			code = errs.ErrCodeInternal
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: string(code)})
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxRequestBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errs.New(errs.ErrCodeInvalidInput, "request body too large")
		case errors.Is(err, io.EOF):
			return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
		default:
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid JSON body")
		}
	}
	return nil
}
