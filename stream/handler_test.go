package stream_test

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jacentio/userstore/stream"
)

func record(eventName, userID string) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventName: eventName,
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{
				"user": events.NewStringAttribute(userID),
			},
		},
	}
}

func TestNewHandler(t *testing.T) {
	// Nil logger should not panic
	h := stream.NewHandler("user", nil)
	require.NotNil(t, h)
	assert.Equal(t, 1, h.Process(context.Background(), events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{record(stream.EventInsert, "u1")},
	}, "unknown"))
}

func TestProcess_CountsEveryRecord(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := stream.NewHandler("user", zap.New(core))

	n := h.Process(context.Background(), events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			record(stream.EventInsert, "user1"),
			record(stream.EventModify, "user2"),
			record(stream.EventRemove, "user3"),
		},
	}, "req-1")

	assert.Equal(t, 3, n)
	assert.Equal(t, 1, logs.FilterMessage("New user created via DynamoDB trigger").Len())
	assert.Equal(t, 1, logs.FilterMessage("User updated via DynamoDB trigger").Len())
	assert.Equal(t, 1, logs.FilterMessage("User deleted via DynamoDB trigger").Len())
	assert.Equal(t, 3, logs.FilterMessage("Processing DynamoDB record").Len())

	removed := logs.FilterMessage("User deleted via DynamoDB trigger").All()[0]
	assert.Equal(t, "user3", removed.ContextMap()["userId"])
	assert.Equal(t, "req-1", removed.ContextMap()["requestId"])

	done := logs.FilterMessage("DynamoDB trigger processing completed").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 3, done[0].ContextMap()["processedRecords"])
}

func TestProcess_EmptyBatch(t *testing.T) {
	h := stream.NewHandler("user", zap.NewNop())

	assert.Equal(t, 0, h.Process(context.Background(), events.DynamoDBEvent{}, "unknown"))
}

func TestProcess_UnknownEventName(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := stream.NewHandler("user", zap.New(core))

	n := h.Process(context.Background(), events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{record("TRUNCATE", "user1")},
	}, "unknown")

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, logs.FilterMessage("Unknown DynamoDB event name").Len())
}

func TestProcess_ModifyLogsChangedAttributes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := stream.NewHandler("user", zap.New(core))

	rec := record(stream.EventModify, "user1")
	rec.Change.OldImage = map[string]events.DynamoDBAttributeValue{
		"user": events.NewStringAttribute("user1"),
		"age":  events.NewNumberAttribute("30"),
	}
	rec.Change.NewImage = map[string]events.DynamoDBAttributeValue{
		"user": events.NewStringAttribute("user1"),
		"age":  events.NewNumberAttribute("31"),
	}

	h.Process(context.Background(), events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{rec}}, "unknown")

	entries := logs.FilterMessage("User updated via DynamoDB trigger").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"age"}, entries[0].ContextMap()["changedAttributes"])
}
