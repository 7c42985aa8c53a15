package dataset

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/internal/ddb"
)

// DefaultURL is the published guideline dataset.
const DefaultURL = "https://raw.githubusercontent.com/marksescon/Metis-Web/refs/heads/main/metis_data.json"

// DynamoDBScheme prefixes table sources: dynamodb://<table>[/<index>].
const DynamoDBScheme = "dynamodb://"

// LoadFile reads a dataset file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func LoadFile(path string) ([]metis.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(f)
	default:
		return DecodeJSON(f)
	}
}

// Fetch downloads a JSON dataset over HTTP.
func Fetch(ctx context.Context, client *http.Client, rawURL string) ([]metis.Record, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid dataset URL %s", rawURL)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch dataset from %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("failed to fetch dataset from %s: unexpected status %s", rawURL, resp.Status)
	}

	return DecodeJSON(resp.Body)
}

// LoadDynamoDB scans table for items stored under index. Items that cannot
// be decoded are skipped with a warning.
func LoadDynamoDB(ctx context.Context, client dynamodb.ScanAPIClient, table, index string) ([]metis.Record, error) {
	if index == "" {
		index = ddb.DefaultIndex
	}

	input := &dynamodb.ScanInput{
		TableName:                aws.String(table),
		FilterExpression:         aws.String("#sk = :index"),
		ExpressionAttributeNames: map[string]string{"#sk": "sk"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":index": &types.AttributeValueMemberS{Value: index},
		},
	}

	var records []metis.Record
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan table %s", table)
		}

		for _, av := range page.Items {
			item, err := ddb.UnmarshalItem(av)
			if err != nil {
				slog.WarnContext(ctx, "skipping undecodable item", "table", table, "error", err)
				continue
			}
			records = append(records, item.Record())
		}
	}

	return records, nil
}

// Loader resolves a source string to a record collection.
type Loader struct {
	// HTTPClient is used for http and https sources.
	HTTPClient *http.Client

	// DynamoDB creates the client for dynamodb:// sources. It is only called
	// when such a source is loaded.
	DynamoDB func(ctx context.Context) (dynamodb.ScanAPIClient, error)
}

// Load reads source, which is a dynamodb:// table reference, an http(s) URL
// or a file path, and logs a summary.
func (l *Loader) Load(ctx context.Context, source string) ([]metis.Record, error) {
	records, err := l.load(ctx, source)
	if err != nil {
		return nil, err
	}

	problems := Check(ctx, records)
	slog.InfoContext(ctx, "loaded dataset", "source", source, "records", len(records), "problems", problems)
	return records, nil
}

func (l *Loader) load(ctx context.Context, source string) ([]metis.Record, error) {
	switch {
	case strings.HasPrefix(source, DynamoDBScheme):
		table, index, err := ParseTableSource(source)
		if err != nil {
			return nil, err
		}
		if l.DynamoDB == nil {
			return nil, errors.Newf("no DynamoDB client configured for %s", source)
		}
		client, err := l.DynamoDB(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create DynamoDB client")
		}
		return LoadDynamoDB(ctx, client, table, index)

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return Fetch(ctx, l.HTTPClient, source)

	default:
		return LoadFile(source)
	}
}

// ParseTableSource splits dynamodb://table/index into its parts. The index
// defaults to ddb.DefaultIndex.
func ParseTableSource(source string) (table, index string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", errors.Wrapf(err, "invalid table source %s", source)
	}

	table = u.Host
	index = strings.Trim(u.Path, "/")
	if table == "" {
		return "", "", errors.Newf("table source %s has no table name", source)
	}
	if index == "" {
		index = ddb.DefaultIndex
	}
	return table, index, nil
}
