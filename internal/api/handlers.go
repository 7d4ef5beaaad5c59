package api

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/ingest"
	"github.com/ignite/user-ingest/internal/pkg/httputil"
	"github.com/ignite/user-ingest/internal/upload"
)

// EventDispatcher processes one trigger event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev ingest.Event) (domain.BatchResult, error)
}

// UploadAuthorizer issues upload grants.
type UploadAuthorizer interface {
	Authorize(ctx context.Context) (upload.Grant, error)
}

// Handlers serves the ingestion and upload endpoints.
type Handlers struct {
	dispatcher EventDispatcher
	authorizer UploadAuthorizer
}

// NewHandlers creates Handlers.
func NewHandlers(dispatcher EventDispatcher, authorizer UploadAuthorizer) *Handlers {
	return &Handlers{dispatcher: dispatcher, authorizer: authorizer}
}

// HandleIngestEvents accepts an S3 event notification and ingests every
// object it names.
//
//	POST /ingest/events
func (h *Handlers) HandleIngestEvents(w http.ResponseWriter, r *http.Request) {
	var ev events.S3Event
	if !httputil.Decode(w, r, &ev) {
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), ingest.EventFromS3(ev))
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, result)
}

// HandleUploadURL returns a presigned POST for a new CSV object.
//
//	POST /upload-url
func (h *Handlers) HandleUploadURL(w http.ResponseWriter, r *http.Request) {
	grant, err := h.authorizer.Authorize(r.Context())
	if err != nil {
		httputil.DomainError(w, err)
		return
	}
	httputil.OK(w, grant)
}
