package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/dataset"
	"github.com/letmevibethatforyou/metis/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// PutItemAPI is the part of the DynamoDB client the seeder writes through.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func insertRecord(ctx context.Context, client PutItemAPI, tableName, indexName string, record metis.Record) (string, error) {
	if record.ID == "" {
		record.ID = ksuid.New().String()
	}

	item, err := ddb.MarshalItem(ddb.NewItem(indexName, record))
	if err != nil {
		return "", err
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted guideline",
		"id", record.ID,
		"index", indexName,
		"category", record.Category,
	)

	return record.ID, nil
}

func seed(ctx context.Context, client PutItemAPI, tableName, indexName string, records []metis.Record) (int, error) {
	for i, record := range records {
		if _, err := insertRecord(ctx, client, tableName, indexName, record); err != nil {
			return i, fmt.Errorf("failed to insert guideline %d: %w", i+1, err)
		}
	}
	return len(records), nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	file := c.String("file")
	tableName := c.String("table-name")
	indexName := c.String("index")

	slog.InfoContext(ctx, "Starting guideline seeder",
		"file", file,
		"table", tableName,
		"index", indexName,
	)

	records, err := dataset.LoadFile(file)
	if err != nil {
		return err
	}
	dataset.Check(ctx, records)

	if c.Bool("dry-run") {
		slog.InfoContext(ctx, "Dry run, nothing written", "count", len(records))
		return nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	count, err := seed(ctx, dynamodb.NewFromConfig(cfg), tableName, indexName, records)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Successfully inserted all guidelines", "count", count)
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load a guideline dataset file into DynamoDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Dataset file (.json, .yaml or .yml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index name stored as the sort key",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   ddb.DefaultIndex,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the dataset without writing to DynamoDB",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
