// Package stream processes DynamoDB Streams change events for the user table.
package stream

import (
	"context"
	"sort"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Event names carried by DynamoDB stream records.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Handler observes change events. It never writes back to the table.
type Handler struct {
	keyAttr string
	logger  *zap.Logger
}

// NewHandler creates a stream handler for a table keyed on keyAttr.
func NewHandler(keyAttr string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		keyAttr: keyAttr,
		logger:  logger,
	}
}

// Process classifies every record of the batch and returns how many were
// processed. Removals are logged like any other change; no action is taken.
func (h *Handler) Process(ctx context.Context, event events.DynamoDBEvent, requestID string) int {
	h.logger.Info("Processing DynamoDB trigger event",
		zap.Int("recordCount", len(event.Records)),
		zap.String("requestId", requestID),
	)

	for _, record := range event.Records {
		h.processRecord(record, requestID)
	}

	h.logger.Info("DynamoDB trigger processing completed",
		zap.Int("processedRecords", len(event.Records)),
		zap.String("requestId", requestID),
	)
	return len(event.Records)
}

// processRecord logs a single change record.
func (h *Handler) processRecord(record events.DynamoDBEventRecord, requestID string) {
	userID := getStringAttr(record.Change.Keys, h.keyAttr)
	fields := []zap.Field{
		zap.String("userId", userID),
		zap.String("requestId", requestID),
	}

	h.logger.Info("Processing DynamoDB record", append(fields, zap.String("eventName", record.EventName))...)

	switch record.EventName {
	case EventInsert:
		h.logger.Info("New user created via DynamoDB trigger", fields...)
	case EventModify:
		h.logger.Info("User updated via DynamoDB trigger",
			append(fields, zap.Strings("changedAttributes", changedAttrs(record.Change.OldImage, record.Change.NewImage)))...)
	case EventRemove:
		h.logger.Info("User deleted via DynamoDB trigger", fields...)
	default:
		h.logger.Warn("Unknown DynamoDB event name", append(fields, zap.String("eventName", record.EventName))...)
	}
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// changedAttrs lists attributes whose presence or value differs between
// the old and new images.
func changedAttrs(oldImage, newImage map[string]events.DynamoDBAttributeValue) []string {
	var changed []string
	for k, nv := range newImage {
		ov, ok := oldImage[k]
		if !ok || !sameValue(ov, nv) {
			changed = append(changed, k)
		}
	}
	for k := range oldImage {
		if _, ok := newImage[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func sameValue(a, b events.DynamoDBAttributeValue) bool {
	aj, errA := a.MarshalJSON()
	bj, errB := b.MarshalJSON()
	return errA == nil && errB == nil && string(aj) == string(bj)
}
