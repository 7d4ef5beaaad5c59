// Command ingest-lambda is the S3 ObjectCreated trigger that loads uploaded
// user CSVs into Postgres.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/ignite/user-ingest/internal/app"
	"github.com/ignite/user-ingest/internal/config"
	"github.com/ignite/user-ingest/internal/lambdafn"
	"github.com/ignite/user-ingest/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lambda.Start(lambdafn.IngestHandler(a.Dispatcher))
}
