package ddb

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
)

const streamEvent = `{
	"Records": [
		{
			"eventID": "1",
			"eventName": "INSERT",
			"eventSource": "aws:dynamodb",
			"awsRegion": "us-east-1",
			"dynamodb": {
				"Keys": {"pk": {"S": "A1"}, "sk": {"S": "guidelines"}},
				"NewImage": {
					"pk": {"S": "A1"},
					"sk": {"S": "guidelines"},
					"object": {
						"M": {
							"id": {"S": "A1"},
							"category": {"S": "cardiac"},
							"instruction": {"S": "monitor vitals"},
							"keywords": {"L": [{"S": "chest pain"}, {"S": "angina"}]},
							"policy": {"S": "P1"}
						}
					}
				},
				"SequenceNumber": "111",
				"SizeBytes": 256,
				"StreamViewType": "NEW_AND_OLD_IMAGES"
			}
		},
		{
			"eventID": "2",
			"eventName": "MODIFY",
			"dynamodb": {
				"Keys": {"pk": {"S": "B2"}, "sk": {"S": "guidelines"}},
				"NewImage": {
					"pk": {"S": "B2"},
					"sk": {"S": "guidelines"},
					"object": {
						"M": {
							"category": {"S": "respiratory"},
							"keywords": {"SS": ["asthma"]},
							"policy": {"NULL": true}
						}
					}
				},
				"SequenceNumber": "222",
				"SizeBytes": 128,
				"StreamViewType": "NEW_AND_OLD_IMAGES"
			}
		},
		{
			"eventID": "3",
			"eventName": "REMOVE",
			"dynamodb": {
				"Keys": {"pk": {"S": "C3"}, "sk": {"S": "guidelines"}},
				"SequenceNumber": "333",
				"SizeBytes": 64,
				"StreamViewType": "KEYS_ONLY"
			}
		},
		{
			"eventID": "4",
			"eventName": "MODIFY",
			"dynamodb": {
				"Keys": {"pk": {"S": "D4"}, "sk": {"S": "guidelines"}},
				"SequenceNumber": "444",
				"SizeBytes": 64,
				"StreamViewType": "KEYS_ONLY"
			}
		}
	]
}`

func decodeEvent(t *testing.T) events.DynamoDBEvent {
	t.Helper()

	var e events.DynamoDBEvent
	if err := json.Unmarshal([]byte(streamEvent), &e); err != nil {
		t.Fatalf("Failed to unmarshal stream event: %v", err)
	}
	if len(e.Records) != 4 {
		t.Fatalf("Expected 4 stream records, got %d", len(e.Records))
	}
	return e
}

func TestDecodeChange_Insert(t *testing.T) {
	e := decodeEvent(t)

	change, err := DecodeChange(e.Records[0])
	if err != nil {
		t.Fatalf("DecodeChange failed: %v", err)
	}

	if change.Operation != OperationInsert {
		t.Errorf("Expected INSERT, got %s", change.Operation)
	}
	if change.Item.ID != "A1" || change.Item.IndexName != "guidelines" {
		t.Errorf("Unexpected keys: %+v", change.Item)
	}

	r := change.Item.Record()
	if r.Category != "cardiac" || r.Instruction != "monitor vitals" || r.Policy != "P1" {
		t.Errorf("Unexpected record: %+v", r)
	}
	if len(r.Keywords) != 2 || r.Keywords[1] != "angina" {
		t.Errorf("Expected keywords [chest pain angina], got %v", r.Keywords)
	}
}

func TestDecodeChange_ModifyWithSparseObject(t *testing.T) {
	e := decodeEvent(t)

	change, err := DecodeChange(e.Records[1])
	if err != nil {
		t.Fatalf("DecodeChange failed: %v", err)
	}

	r := change.Item.Record()
	if r.ID != "B2" {
		t.Errorf("Expected record to inherit pk B2, got %q", r.ID)
	}
	if r.Instruction != "" || r.Policy != "" {
		t.Errorf("Expected missing fields to be empty, got %+v", r)
	}
	if len(r.Keywords) != 1 || r.Keywords[0] != "asthma" {
		t.Errorf("Expected string set keywords [asthma], got %v", r.Keywords)
	}
}

func TestDecodeChange_Remove(t *testing.T) {
	e := decodeEvent(t)

	change, err := DecodeChange(e.Records[2])
	if err != nil {
		t.Fatalf("DecodeChange failed: %v", err)
	}

	if change.Operation != OperationRemove {
		t.Errorf("Expected REMOVE, got %s", change.Operation)
	}
	if change.Item.ID != "C3" || change.Item.IndexName != "guidelines" {
		t.Errorf("Unexpected keys: %+v", change.Item)
	}
}

func TestDecodeChange_Errors(t *testing.T) {
	e := decodeEvent(t)

	if _, err := DecodeChange(e.Records[3]); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}

	unknown := events.DynamoDBEventRecord{EventID: "5", EventName: "TRUNCATE"}
	if _, err := DecodeChange(unknown); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestFromStreamImage_Nested(t *testing.T) {
	var image map[string]events.DynamoDBAttributeValue
	data := `{
		"list": {"L": [{"N": "1"}, {"BOOL": true}]},
		"nested": {"M": {"name": {"S": "x"}}},
		"nothing": {"NULL": true}
	}`
	if err := json.Unmarshal([]byte(data), &image); err != nil {
		t.Fatalf("Failed to unmarshal image: %v", err)
	}

	av := FromStreamImage(image)
	if len(av) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(av))
	}
	if FromStreamImage(nil) != nil {
		t.Error("Expected nil image to stay nil")
	}
}
