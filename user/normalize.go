package user

import (
	"strings"
	"time"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// normalizeID trims surrounding whitespace from a caller-supplied id.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newRecord derives the record to persist on create from a validated
// candidate. createdAt and updatedAt are both set to now.
func newRecord(id string, a Attributes, now time.Time) *Record {
	ts := timestamp(now)
	r := &Record{
		ID:        normalizeID(id),
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if name, ok := a[attrName].(string); ok {
		r.Name = strings.TrimSpace(name)
	}
	if email, ok := a[attrEmail].(string); ok && email != "" {
		r.Email = normalizeEmail(email)
	}
	if v, ok := a[attrAge]; ok {
		if age, valid := ageValue(v); valid {
			r.Age = &age
		}
	}
	if phone, ok := a[attrPhone].(string); ok && phone != "" {
		r.Phone = phone
	}

	for k, v := range a {
		if isNamed(k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return r
}

// updateFields derives the attribute set for a modify from a validated
// partial update. Only fields present in the update are touched, managed
// attributes are dropped, and updatedAt is always set to now.
func updateFields(a Attributes, now time.Time) map[string]any {
	fields := make(map[string]any, len(a)+1)
	for k, v := range a {
		if isManaged(k) {
			continue
		}
		fields[k] = v
	}

	if name, ok := fields[attrName].(string); ok {
		fields[attrName] = strings.TrimSpace(name)
	}
	if email, ok := fields[attrEmail].(string); ok && email != "" {
		fields[attrEmail] = normalizeEmail(email)
	}
	if v, ok := fields[attrAge]; ok {
		if age, valid := ageValue(v); valid {
			fields[attrAge] = age
		}
	}

	fields[attrUpdatedAt] = timestamp(now)
	return fields
}
