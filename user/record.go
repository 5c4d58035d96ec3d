package user

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/userstore/store"
)

// KeyAttribute is the table attribute holding the record id. It must match
// the dynamodbav tag of Record.ID.
const KeyAttribute = store.KeyAttribute

const (
	attrID        = "id"
	attrName      = "name"
	attrEmail     = "email"
	attrAge       = "age"
	attrPhone     = "phone"
	attrCreatedAt = "createdAt"
	attrUpdatedAt = "updatedAt"
)

// Attributes is a caller-supplied payload as decoded from JSON: the named
// fields are validated, anything else is passed through as-is.
type Attributes map[string]any

// Record is a persisted user.
type Record struct {
	ID        string `dynamodbav:"user"`
	Name      string `dynamodbav:"name"`
	Email     string `dynamodbav:"email,omitempty"`
	Age       *int   `dynamodbav:"age,omitempty"`
	Phone     string `dynamodbav:"phone,omitempty"`
	CreatedAt string `dynamodbav:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`

	// Extra holds attributes outside the named fields.
	Extra map[string]any `dynamodbav:"-"`
}

// recordJSON is the JSON shape of the named fields.
type recordJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Age       *int   `json:"age,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// isNamed reports whether attr is one of the Record's named fields, in
// either its JSON or its table form.
func isNamed(attr string) bool {
	switch attr {
	case attrID, KeyAttribute, attrName, attrEmail, attrAge, attrPhone, attrCreatedAt, attrUpdatedAt:
		return true
	}
	return false
}

// isManaged reports whether attr is maintained by the service and must not
// be set by callers.
func isManaged(attr string) bool {
	switch attr {
	case attrID, KeyAttribute, attrCreatedAt, attrUpdatedAt:
		return true
	}
	return false
}

// MarshalJSON flattens Extra alongside the named fields.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Extra) == 0 {
		return json.Marshal(r.named())
	}

	out := make(map[string]any, len(r.Extra)+7)
	for k, v := range r.Extra {
		if !isNamed(k) {
			out[k] = v
		}
	}
	out[attrID] = r.ID
	out[attrName] = r.Name
	if r.Email != "" {
		out[attrEmail] = r.Email
	}
	if r.Age != nil {
		out[attrAge] = *r.Age
	}
	if r.Phone != "" {
		out[attrPhone] = r.Phone
	}
	out[attrCreatedAt] = r.CreatedAt
	out[attrUpdatedAt] = r.UpdatedAt
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var named recordJSON
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*r = Record{
		ID:        named.ID,
		Name:      named.Name,
		Email:     named.Email,
		Age:       named.Age,
		Phone:     named.Phone,
		CreatedAt: named.CreatedAt,
		UpdatedAt: named.UpdatedAt,
	}
	for k, v := range all {
		if isNamed(k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return nil
}

func (r Record) named() recordJSON {
	return recordJSON{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Age:       r.Age,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// toItem converts the record to its table form.
func (r *Record) toItem() (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	for k, v := range r.Extra {
		if isNamed(k) {
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

// recordFromItem converts a table item back to a Record, collecting
// attributes outside the named fields into Extra.
func recordFromItem(item map[string]types.AttributeValue) (*Record, error) {
	r := &Record{}
	if err := attributevalue.UnmarshalMap(item, r); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	for k, av := range item {
		if isNamed(k) {
			continue
		}
		var v any
		if err := attributevalue.Unmarshal(av, &v); err != nil {
			return nil, fmt.Errorf("unmarshal attribute %q: %w", k, err)
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return r, nil
}
