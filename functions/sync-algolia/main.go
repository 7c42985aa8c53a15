package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/algolia"
	"github.com/letmevibethatforyou/metis/internal/ddb"
	"github.com/urfave/cli/v2"
)

// Indexer writes guideline records to a search index.
type Indexer interface {
	SaveRecord(ctx context.Context, indexName string, r metis.Record) error
	DeleteRecord(ctx context.Context, indexName, id string) error
}

type Handler struct {
	tableName string
	indexer   Indexer
}

func NewHandler(tableName string, indexer Indexer) *Handler {
	return &Handler{
		tableName: tableName,
		indexer:   indexer,
	}
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e events.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "table", h.tableName, "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	change, err := ddb.DecodeChange(record)
	if err != nil {
		slog.WarnContext(ctx, "Failed to decode stream record, skipping", "event_id", record.EventID, "error", err)
		return nil
	}

	item := change.Item
	if item.ID == "" || item.IndexName == "" {
		slog.WarnContext(ctx, "Missing ID (pk) or IndexName (sk) in record, skipping record", "event_id", record.EventID)
		return nil
	}

	switch change.Operation {
	case ddb.OperationRemove:
		slog.InfoContext(ctx, "Deleting record from Algolia", "object_id", item.ID, "index", item.IndexName)
		return h.indexer.DeleteRecord(ctx, item.IndexName, item.ID)
	default:
		slog.InfoContext(ctx, "Saving record to Algolia", "object_id", item.ID, "index", item.IndexName)
		return h.indexer.SaveRecord(ctx, item.IndexName, item.Record())
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "sync-algolia",
		Usage: "Sync guideline table stream events to Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	env := c.String("env")

	slog.InfoContext(ctx, "Starting guideline sync", "table", tableName, "environment", env)

	fetchSecrets, err := selectSecrets(ctx, env, c.String("algolia-app-id"), c.String("algolia-api-key"))
	if err != nil {
		return err
	}

	handler := NewHandler(tableName, algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleDynamoDBEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}

// selectSecrets prefers Secrets Manager when env is set, then static flag
// credentials, then ALGOLIA_* environment variables.
func selectSecrets(ctx context.Context, env, appID, apiKey string) (algolia.FetchSecrets, error) {
	switch {
	case env != "":
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return nil, err
		}
		return algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), algolia.SecretPath(env)), nil
	case appID != "" && apiKey != "":
		slog.InfoContext(ctx, "Using static credentials from flags")
		return algolia.StaticSecrets(appID, apiKey), nil
	default:
		slog.InfoContext(ctx, "Using environment variables for credentials")
		return algolia.EnvSecrets(), nil
	}
}
