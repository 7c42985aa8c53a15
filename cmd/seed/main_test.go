package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/metis"
	"github.com/letmevibethatforyou/metis/internal/ddb"
	"github.com/segmentio/ksuid"
)

type mockPutClient struct {
	inputs []*dynamodb.PutItemInput
	failOn int
}

func (m *mockPutClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.failOn > 0 && len(m.inputs) == m.failOn {
		return nil, errors.New("throttled")
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestInsertRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps existing id", func(t *testing.T) {
		client := &mockPutClient{}
		record := metis.Record{ID: "A1", Category: "Blood Pressure", Keywords: []string{"bp"}}

		id, err := insertRecord(ctx, client, "guidelines-table", "guidelines", record)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if id != "A1" {
			t.Errorf("Expected id A1, got %s", id)
		}
		if len(client.inputs) != 1 {
			t.Fatalf("Expected 1 PutItem call, got %d", len(client.inputs))
		}

		input := client.inputs[0]
		if *input.TableName != "guidelines-table" {
			t.Errorf("Expected table guidelines-table, got %s", *input.TableName)
		}

		item, err := ddb.UnmarshalItem(input.Item)
		if err != nil {
			t.Fatalf("Failed to unmarshal written item: %v", err)
		}
		if item.ID != "A1" || item.IndexName != "guidelines" {
			t.Errorf("Expected pk A1 and sk guidelines, got %s/%s", item.ID, item.IndexName)
		}
		if item.Object.Category != "Blood Pressure" {
			t.Errorf("Expected category Blood Pressure, got %s", item.Object.Category)
		}
	})

	t.Run("assigns ksuid when id is empty", func(t *testing.T) {
		client := &mockPutClient{}

		id, err := insertRecord(ctx, client, "table", "guidelines", metis.Record{Category: "Diabetes"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := ksuid.Parse(id); err != nil {
			t.Errorf("Expected a KSUID, got %q: %v", id, err)
		}

		item, err := ddb.UnmarshalItem(client.inputs[0].Item)
		if err != nil {
			t.Fatalf("Failed to unmarshal written item: %v", err)
		}
		if item.ID != id || item.Object.ID != id {
			t.Errorf("Expected pk and object id %s, got %s and %s", id, item.ID, item.Object.ID)
		}
	})
}

func TestSeed(t *testing.T) {
	records := []metis.Record{{ID: "A1"}, {ID: "B2"}, {ID: "C3"}}

	client := &mockPutClient{}
	count, err := seed(context.Background(), client, "table", "guidelines", records)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 3 || len(client.inputs) != 3 {
		t.Errorf("Expected 3 writes, got count=%d calls=%d", count, len(client.inputs))
	}

	failing := &mockPutClient{failOn: 2}
	count, err = seed(context.Background(), failing, "table", "guidelines", records)
	if err == nil {
		t.Fatal("Expected error from failing client")
	}
	if count != 1 {
		t.Errorf("Expected 1 successful write before failure, got %d", count)
	}
}
