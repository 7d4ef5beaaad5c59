package httputil

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

// StatusFor maps an error kind to a status code and a client-safe message.
// Configuration errors name the missing setting; store errors never expose
// their cause.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, configMessage(err)
	case errors.Is(err, domain.ErrStore):
		return http.StatusBadGateway, "upstream storage error"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// DomainError logs err and writes the response chosen by StatusFor.
func DomainError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)
	logger.Error("request failed", "status", status, "error", err)
	Error(w, status, msg)
}

// configMessage returns the text after the configuration kind prefix.
func configMessage(err error) string {
	msg := err.Error()
	prefix := domain.ErrConfiguration.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
