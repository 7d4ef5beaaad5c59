// Package lambdafn adapts the ingest and upload flows to AWS Lambda event
// shapes.
package lambdafn

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ignite/user-ingest/internal/api"
	"github.com/ignite/user-ingest/internal/domain"
	"github.com/ignite/user-ingest/internal/ingest"
	"github.com/ignite/user-ingest/internal/pkg/httputil"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

// IngestHandler returns the S3 notification handler. A fatal error fails the
// invocation so the S3 async retry policy applies.
func IngestHandler(d api.EventDispatcher) func(context.Context, events.S3Event) (domain.BatchResult, error) {
	return func(ctx context.Context, ev events.S3Event) (domain.BatchResult, error) {
		result, err := d.Dispatch(ctx, ingest.EventFromS3(ev))
		if err != nil {
			logger.Error("ingest invocation failed", "records", len(ev.Records), "error", err)
			return domain.BatchResult{}, err
		}
		return result, nil
	}
}

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "*",
}

// UploadURLHandler returns the API Gateway proxy handler that issues upload
// grants. Errors become JSON error responses rather than failed invocations.
func UploadURLHandler(a api.UploadAuthorizer) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		grant, err := a.Authorize(ctx)
		if err != nil {
			status, msg := httputil.StatusFor(err)
			logger.Error("upload authorization failed", "status", status, "error", err)
			return proxyResponse(status, httputil.ErrorResponse{Error: msg})
		}
		return proxyResponse(http.StatusOK, grant)
	}
}

func proxyResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	headers := make(map[string]string, len(corsHeaders))
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(raw),
	}, nil
}
