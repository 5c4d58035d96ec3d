package user

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation messages, in the order the rules are evaluated.
const (
	MsgNameRequired = "Name is required and must be a non-empty string"
	MsgNameTooLong  = "Name must be less than 256 characters"
	MsgEmailInvalid = "Invalid email format"
	MsgEmailTooLong = "Email must be less than 256 characters"
	MsgAgeInvalid   = "Age must be a positive integer between 0 and 150"
	MsgPhoneInvalid = "Invalid phone number format"
)

const (
	maxFieldLength = 255
	minAge         = 0
	maxAge         = 150
)

// whitespace is the ECMAScript \s set; RE2's \s covers ASCII only.
const whitespace = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	emailPattern = regexp.MustCompile(`^[^` + whitespace + `@]+@[^` + whitespace + `@]+\.[^` + whitespace + `@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneFiller  = regexp.MustCompile(`[` + whitespace + `\-()]`)
)

// Validate checks a full candidate record and returns every rule it
// violates. An empty result means the candidate is valid.
func Validate(a Attributes) []string {
	return validate(a, true)
}

// ValidatePartial checks a partial update. It applies the same rules as
// Validate, except that name is only required to be non-empty when the
// update sets it.
func ValidatePartial(a Attributes) []string {
	return validate(a, false)
}

func validate(a Attributes, requireName bool) []string {
	var errs []string

	name, hasName := a[attrName]
	nameStr, nameIsStr := name.(string)
	if (requireName || hasName) && (!nameIsStr || strings.TrimSpace(nameStr) == "") {
		errs = append(errs, MsgNameRequired)
	}
	if nameIsStr && utf8.RuneCountInString(nameStr) > maxFieldLength {
		errs = append(errs, MsgNameTooLong)
	}

	if email, ok := a[attrEmail]; ok && isSet(email) {
		s, isStr := email.(string)
		if !isStr || !emailPattern.MatchString(strings.TrimSpace(s)) {
			errs = append(errs, MsgEmailInvalid)
		}
		if isStr && utf8.RuneCountInString(s) > maxFieldLength {
			errs = append(errs, MsgEmailTooLong)
		}
	}

	if age, ok := a[attrAge]; ok {
		if _, valid := ageValue(age); !valid {
			errs = append(errs, MsgAgeInvalid)
		}
	}

	if phone, ok := a[attrPhone]; ok && isSet(phone) {
		s, isStr := phone.(string)
		if !isStr || !phonePattern.MatchString(phoneFiller.ReplaceAllString(s, "")) {
			errs = append(errs, MsgPhoneInvalid)
		}
	}

	return errs
}

// ageValue converts a decoded age to an int, reporting whether it is an
// integer within [minAge, maxAge]. Integral floats such as 30.0 are accepted.
func ageValue(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < minAge || f > maxAge {
		return 0, false
	}
	return int(f), true
}

// isSet reports whether an optional value counts as supplied. Empty
// strings, zero numbers, false and null are treated as absent.
func isSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}
