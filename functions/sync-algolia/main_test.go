package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/letmevibethatforyou/metis"
)

type saved struct {
	index  string
	record metis.Record
}

type deleted struct {
	index string
	id    string
}

type mockIndexer struct {
	saved   []saved
	deleted []deleted
	err     error
}

func (m *mockIndexer) SaveRecord(_ context.Context, indexName string, r metis.Record) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, saved{index: indexName, record: r})
	return nil
}

func (m *mockIndexer) DeleteRecord(_ context.Context, indexName, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, deleted{index: indexName, id: id})
	return nil
}

const event = `{
	"Records": [
		{
			"eventID": "1",
			"eventName": "INSERT",
			"dynamodb": {
				"Keys": {"pk": {"S": "A1"}, "sk": {"S": "guidelines"}},
				"NewImage": {
					"pk": {"S": "A1"},
					"sk": {"S": "guidelines"},
					"object": {"M": {"category": {"S": "Blood Pressure"}, "keywords": {"L": [{"S": "bp"}]}}}
				}
			}
		},
		{
			"eventID": "2",
			"eventName": "MODIFY",
			"dynamodb": {
				"Keys": {"pk": {"S": "B2"}, "sk": {"S": "guidelines"}}
			}
		},
		{
			"eventID": "3",
			"eventName": "INSERT",
			"dynamodb": {
				"NewImage": {"sk": {"S": "guidelines"}, "object": {"M": {"category": {"S": "Diabetes"}}}}
			}
		},
		{
			"eventID": "4",
			"eventName": "REMOVE",
			"dynamodb": {
				"Keys": {"pk": {"S": "C3"}, "sk": {"S": "archive"}}
			}
		}
	]
}`

func decodeEvent(t *testing.T) events.DynamoDBEvent {
	t.Helper()
	var e events.DynamoDBEvent
	if err := json.Unmarshal([]byte(event), &e); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	return e
}

func TestHandleDynamoDBEvent(t *testing.T) {
	indexer := &mockIndexer{}
	handler := NewHandler("guidelines-table", indexer)

	if err := handler.HandleDynamoDBEvent(context.Background(), decodeEvent(t)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(indexer.saved) != 1 {
		t.Fatalf("Expected 1 saved record, got %d", len(indexer.saved))
	}
	got := indexer.saved[0]
	if got.index != "guidelines" {
		t.Errorf("Expected index guidelines, got %s", got.index)
	}
	if got.record.ID != "A1" {
		t.Errorf("Expected record id A1 from pk, got %q", got.record.ID)
	}
	if got.record.Category != "Blood Pressure" {
		t.Errorf("Expected category Blood Pressure, got %q", got.record.Category)
	}
	if len(got.record.Keywords) != 1 || got.record.Keywords[0] != "bp" {
		t.Errorf("Expected keywords [bp], got %v", got.record.Keywords)
	}

	if len(indexer.deleted) != 1 {
		t.Fatalf("Expected 1 deleted record, got %d", len(indexer.deleted))
	}
	if indexer.deleted[0] != (deleted{index: "archive", id: "C3"}) {
		t.Errorf("Expected delete of C3 from archive, got %+v", indexer.deleted[0])
	}
}

func TestHandleDynamoDBEventIndexerError(t *testing.T) {
	indexer := &mockIndexer{err: errors.New("algolia unavailable")}
	handler := NewHandler("guidelines-table", indexer)

	err := handler.HandleDynamoDBEvent(context.Background(), decodeEvent(t))
	if err == nil {
		t.Fatal("Expected indexer error to be returned")
	}
	if err.Error() != "algolia unavailable" {
		t.Errorf("Expected indexer error, got %v", err)
	}
}

func TestSelectSecrets(t *testing.T) {
	ctx := context.Background()

	fetch, err := selectSecrets(ctx, "", "app", "key")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	secrets, err := fetch()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if secrets.AppID != "app" || secrets.WriteApiKey != "key" {
		t.Errorf("Expected static credentials, got %+v", secrets)
	}

	t.Setenv("ALGOLIA_APP_ID", "env-app")
	t.Setenv("ALGOLIA_API_KEY", "env-key")

	fetch, err = selectSecrets(ctx, "", "app", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	secrets, err = fetch()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if secrets.AppID != "env-app" {
		t.Errorf("Expected environment credentials, got %+v", secrets)
	}
}
