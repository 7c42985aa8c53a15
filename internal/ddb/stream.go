package ddb

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

// Operation is the kind of change carried by a stream record.
type Operation string

const (
	OperationInsert Operation = Operation(events.DynamoDBOperationTypeInsert)
	OperationModify Operation = Operation(events.DynamoDBOperationTypeModify)
	OperationRemove Operation = Operation(events.DynamoDBOperationTypeRemove)
)

// ErrNoImage is returned for an upsert stream record without a new image,
// which happens when the stream view type is KEYS_ONLY or OLD_IMAGE.
var ErrNoImage = errors.New("ddb: stream record has no new image")

// ErrUnsupportedOperation is returned for event names other than
// INSERT, MODIFY and REMOVE.
var ErrUnsupportedOperation = errors.New("ddb: unsupported stream operation")

// Change is a decoded stream record.
type Change struct {
	Operation Operation
	// Item holds the new image for inserts and modifications and only the
	// keys for removals.
	Item Item
}

// DecodeChange decodes a single stream record.
func DecodeChange(rec events.DynamoDBEventRecord) (Change, error) {
	op := Operation(rec.EventName)

	var image map[string]events.DynamoDBAttributeValue
	switch op {
	case OperationInsert, OperationModify:
		if len(rec.Change.NewImage) == 0 {
			return Change{}, errors.Wrapf(ErrNoImage, "event %s", rec.EventID)
		}
		image = rec.Change.NewImage
	case OperationRemove:
		image = rec.Change.Keys
	default:
		return Change{}, errors.Wrapf(ErrUnsupportedOperation, "event %s: %q", rec.EventID, rec.EventName)
	}

	item, err := UnmarshalItem(FromStreamImage(image))
	if err != nil {
		return Change{}, errors.Wrapf(err, "event %s", rec.EventID)
	}

	return Change{Operation: op, Item: item}, nil
}

// FromStreamImage converts a stream image into SDK attribute values so it can
// be decoded with the attributevalue package.
func FromStreamImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	if image == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		out[k] = fromStreamValue(v)
	}
	return out
}

func fromStreamValue(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for _, item := range list {
			out = append(out, fromStreamValue(item))
		}
		return &types.AttributeValueMemberL{Value: out}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: FromStreamImage(v.Map())}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
