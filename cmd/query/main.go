package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/algolia"
	"github.com/letmevibethatforyou/metis/dataset"
	"github.com/letmevibethatforyou/metis/inmemory"
	"github.com/urfave/cli/v2"
)

const (
	defaultTimeout = 10 * time.Second

	backendMemory  = "memory"
	backendAlgolia = "algolia"
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Search clinical guidelines by free-text query",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Dataset to load: file path, http(s) URL or dynamodb://table[/index]",
				EnvVars: []string{"METIS_DATA"},
				Value:   dataset.DefaultURL,
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Search backend: memory or algolia",
				EnvVars: []string{"METIS_BACKEND"},
				Value:   backendMemory,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Algolia index name for the algolia backend",
				EnvVars: []string{"ALGOLIA_INDEX"},
				Value:   "guidelines",
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Print the record with this id instead of searching",
			},
			&cli.BoolFlag{
				Name:  "interactive",
				Usage: "Read one query per line from stdin",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return; 0 returns every match",
			},
			&cli.IntFlag{
				Name:    "offset",
				Aliases: []string{"o"},
				Usage:   "Number of results to skip before returning hits",
			},
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Only return records in this category; repeatable",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for loading the dataset and for each search",
				Value: defaultTimeout,
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

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.Join(c.Args().Slice(), " ")
	}

	limit := c.Int("limit")
	if limit < 0 {
		slog.WarnContext(ctx, "limit cannot be negative; returning every match", "limit", limit)
		limit = 0
	}

	offset := c.Int("offset")
	if offset < 0 {
		slog.WarnContext(ctx, "offset cannot be negative; resetting to 0", "offset", offset)
		offset = 0
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	opts := []metis.SearchOption{metis.WithLimit(limit), metis.WithOffset(offset)}
	if filter := categoryFilter(c.StringSlice("category")); filter != nil {
		opts = append(opts, filter)
	}

	backend := c.String("backend")
	if err := checkBackendFlags(backend, c.String("id"), c.Bool("interactive")); err != nil {
		return err
	}

	switch backend {
	case backendMemory:
		loadCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		searcher, err := loadSearcher(loadCtx, c.String("data"), timeout)
		if err != nil {
			return err
		}

		if id := strings.TrimSpace(c.String("id")); id != "" {
			record, err := searcher.Get(id)
			if err != nil {
				return fmt.Errorf("lookup failed: %w", err)
			}
			return printJSON(os.Stdout, record)
		}

		if c.Bool("interactive") {
			return runInteractive(ctx, inmemory.NewSession(searcher), os.Stdin, os.Stdout, timeout, opts)
		}
		return runQuery(ctx, searcher, query, timeout, opts)

	case backendAlgolia:
		searcher, err := algoliaSearcher(ctx, c.String("index"), c.String("algolia-secret-arn"))
		if err != nil {
			return err
		}
		return runQuery(ctx, searcher, query, timeout, opts)

	default:
		return fmt.Errorf("unknown backend %q", backend)
	}
}

// checkBackendFlags rejects flags that only the memory backend supports.
func checkBackendFlags(backend, id string, interactive bool) error {
	if backend == backendMemory {
		return nil
	}
	if strings.TrimSpace(id) != "" {
		return fmt.Errorf("--id is only supported with --backend %s", backendMemory)
	}
	if interactive {
		return fmt.Errorf("--interactive is only supported with --backend %s", backendMemory)
	}
	return nil
}

func loadSearcher(ctx context.Context, source string, timeout time.Duration) (*inmemory.Searcher, error) {
	loader := &dataset.Loader{
		HTTPClient: &http.Client{Timeout: timeout},
		DynamoDB: func(ctx context.Context) (dynamodb.ScanAPIClient, error) {
			cfg, err := config.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load AWS config: %w", err)
			}
			return dynamodb.NewFromConfig(cfg), nil
		},
	}

	records, err := loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load guidelines: %w", err)
	}

	return inmemory.New(records), nil
}

func algoliaSearcher(ctx context.Context, indexName, secretArn string) (*algolia.Searcher, error) {
	fetchSecrets := algolia.EnvSecrets()
	if secretArn = strings.TrimSpace(secretArn); secretArn != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", secretArn)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), secretArn)
	}

	return algolia.NewSearcher(algolia.NewClient(fetchSecrets), indexName), nil
}

// categoryFilter matches any of the given categories, or returns nil when
// none are set.
func categoryFilter(categories []string) metis.Expression {
	exprs := make([]metis.Expression, 0, len(categories))
	for _, category := range categories {
		if category = strings.TrimSpace(category); category != "" {
			exprs = append(exprs, metis.Eq(metis.FieldCategory, category))
		}
	}
	if len(exprs) == 0 {
		return nil
	}
	return metis.Or(exprs...)
}

func runQuery(ctx context.Context, searcher metis.Searcher, query string, timeout time.Duration, opts []metis.SearchOption) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.InfoContext(ctx, "executing query", "query", query, "option_count", len(opts))

	results, err := searcher.Search(ctx, query, opts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return printResults(os.Stdout, results)
}

// runInteractive treats every input line as a new query, replacing the
// previous result list.
func runInteractive(ctx context.Context, session *inmemory.Session, in io.Reader, out io.Writer, timeout time.Duration, opts []metis.SearchOption) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		queryCtx, cancel := context.WithTimeout(ctx, timeout)
		items, err := session.Query(queryCtx, scanner.Text(), opts...)
		cancel()
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if err := printItems(out, session.LastQuery(), items); err != nil {
			return err
		}
	}
	return scanner.Err()
}

type resultPayload struct {
	Total      int64          `json:"total"`
	Took       int64          `json:"took_ms"`
	Query      string         `json:"query"`
	MaxScore   int            `json:"max_score"`
	NextOffset *int           `json:"next_offset,omitempty"`
	Items      []metis.Result `json:"items"`
}

func printResults(w io.Writer, res *metis.Results) error {
	if res == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}

	return printJSON(w, resultPayload{
		Total:      res.Total,
		Took:       res.Took,
		Query:      res.Query,
		MaxScore:   res.MaxScore,
		NextOffset: res.NextOffset,
		Items:      res.Items,
	})
}

func printItems(w io.Writer, query string, items []metis.Result) error {
	payload := struct {
		Query string         `json:"query"`
		Empty bool           `json:"empty_query"`
		Items []metis.Result `json:"items"`
	}{
		Query: query,
		Empty: strings.TrimSpace(query) == "",
		Items: items,
	}
	return printJSON(w, payload)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
