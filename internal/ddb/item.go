// Package ddb maps guideline records to and from the DynamoDB guideline table
// and its change stream.
//
// Items use the table's generic layout: the record ID is the partition key
// "pk", the index name is the sort key "sk", and the record itself is stored
// as the map attribute "object".
package ddb

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/metis"
)

// DefaultIndex is the sort key used when none is configured.
const DefaultIndex = "guidelines"

// Item is one row of the guideline table.
type Item struct {
	ID        string       `dynamodbav:"pk"`
	IndexName string       `dynamodbav:"sk"`
	Object    metis.Record `dynamodbav:"object"`
}

// NewItem wraps r for storage under indexName. The record ID becomes the
// partition key.
func NewItem(indexName string, r metis.Record) Item {
	return Item{ID: r.ID, IndexName: indexName, Object: r}
}

// Record returns the stored record. A record stored without its own ID
// inherits the partition key.
func (i Item) Record() metis.Record {
	r := i.Object
	if r.ID == "" {
		r.ID = i.ID
	}
	return r
}

// MarshalItem converts an item into a DynamoDB attribute map.
func MarshalItem(item Item) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item %q", item.ID)
	}
	return av, nil
}

// UnmarshalItem converts a DynamoDB attribute map into an item.
// Missing record attributes are left empty.
func UnmarshalItem(av map[string]types.AttributeValue) (Item, error) {
	var item Item
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return Item{}, errors.Wrap(err, "failed to unmarshal item")
	}
	return item, nil
}
