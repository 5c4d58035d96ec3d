package store

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	// ErrNotFound is returned when no item exists for the requested key.
	ErrNotFound = errors.New("store: item not found")

	// ErrConditionFailed is returned when the existence condition of a put or update did not hold.
	ErrConditionFailed = errors.New("store: condition check failed")
)

// ErrorCode returns the AWS error code carried by err, or "" if err did not
// originate from an AWS API call.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
