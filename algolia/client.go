package algolia

import (
	"context"
	"fmt"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client is a lazily initialised Algolia client. Credentials are fetched on
// first use, so constructing a Client never fails.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

// NewClient creates a Client that obtains credentials from fetchSecrets.
func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}

		if secrets.AppID == "" {
			return nil, errors.New("AppID is empty")
		}

		if secrets.WriteApiKey == "" {
			return nil, errors.New("WriteApiKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.WriteApiKey), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer("metis-algolia"),
	}
}

// toObject converts a record into an Algolia object keyed by the record ID.
func toObject(r metis.Record) map[string]any {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"objectID":             r.ID,
		metis.FieldID:          r.ID,
		metis.FieldCategory:    r.Category,
		metis.FieldInstruction: r.Instruction,
		metis.FieldKeywords:    keywords,
		metis.FieldPolicy:      r.Policy,
	}
}

func (c *Client) index(span trace.Span, indexName string) (*search.Index, error) {
	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return nil, err
	}
	return client.InitIndex(indexName), nil
}

func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return errors.Wrap(err, msg)
}

// SaveRecord creates or replaces one record in the index.
func (c *Client) SaveRecord(ctx context.Context, indexName string, r metis.Record) error {
	_, span := c.tracer.Start(ctx, "algolia.save_record",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", r.ID),
		),
	)
	defer span.End()

	index, err := c.index(span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.SaveObject(toObject(r)); err != nil {
		return fail(span, err, fmt.Sprintf("failed to save record %s to Algolia index %s", r.ID, indexName))
	}

	span.SetStatus(codes.Ok, "record saved")
	return nil
}

// SaveRecords creates or replaces records in the index in one batch.
func (c *Client) SaveRecords(ctx context.Context, indexName string, records []metis.Record) error {
	if len(records) == 0 {
		return nil
	}

	_, span := c.tracer.Start(ctx, "algolia.save_records",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(records)),
		),
	)
	defer span.End()

	index, err := c.index(span, indexName)
	if err != nil {
		return err
	}

	objects := make([]map[string]any, 0, len(records))
	for _, r := range records {
		objects = append(objects, toObject(r))
	}

	if _, err := index.SaveObjects(objects); err != nil {
		return fail(span, err, fmt.Sprintf("failed to batch save %d records to Algolia index %s", len(records), indexName))
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch saved %d records", len(records)))
	return nil
}

// DeleteRecord removes one record from the index.
func (c *Client) DeleteRecord(ctx context.Context, indexName, id string) error {
	_, span := c.tracer.Start(ctx, "algolia.delete_record",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", id),
		),
	)
	defer span.End()

	index, err := c.index(span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.DeleteObject(id); err != nil {
		return fail(span, err, fmt.Sprintf("failed to delete record %s from Algolia index %s", id, indexName))
	}

	span.SetStatus(codes.Ok, "record deleted")
	return nil
}

// DeleteRecords removes records from the index in one batch.
func (c *Client) DeleteRecords(ctx context.Context, indexName string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, span := c.tracer.Start(ctx, "algolia.delete_records",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(ids)),
		),
	)
	defer span.End()

	index, err := c.index(span, indexName)
	if err != nil {
		return err
	}

	if _, err := index.DeleteObjects(ids); err != nil {
		return fail(span, err, fmt.Sprintf("failed to batch delete %d records from Algolia index %s", len(ids), indexName))
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("batch deleted %d records", len(ids)))
	return nil
}
