package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrMalformedRecord = errors.New("malformed record")

// Record is a platform object decoded verbatim from the SmartRecruiters API.
// Numbers are kept as json.Number so ids survive decoding exactly.
type Record map[string]any

// ID returns the record id when it is already a string.
func (r Record) ID() string {
	s, _ := r["id"].(string)
	return s
}

// Clone returns a shallow copy. Nested values are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// NormalizeID returns a copy of r whose "id" is a string. r is not modified.
// Normalizing a record whose id is already a string is a no-op.
func NormalizeID(r Record) (Record, error) {
	raw, ok := r["id"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	}
	id, err := IDString(raw)
	if err != nil {
		return nil, err
	}
	out := r.Clone()
	out["id"] = id
	return out, nil
}

// IDString renders an upstream identifier value in its string form.
func IDString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", fmt.Errorf("%w: id %v", ErrMalformedRecord, t)
		}
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	default:
		return "", fmt.Errorf("%w: id has type %T", ErrMalformedRecord, v)
	}
}

// Label is a best-effort display name for logs.
func (r Record) Label() string {
	for _, k := range []string{"label", "name"} {
		if s, ok := r[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return r.ID()
}
