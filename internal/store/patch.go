package store

import (
	"fmt"
	"strings"
	"time"

	"huntboard/tracker-service/internal/lifecycle"
)

// buildPatch translates an API field patch into SQL SET fragments and args,
// rejecting keys outside the kind's whitelist.
func buildPatch(columns map[string]string, patch lifecycle.Fields) ([]string, []any, error) {
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for key, raw := range patch {
		col, ok := columns[key]
		if !ok {
			return nil, nil, &lifecycle.ValidationError{Msg: fmt.Sprintf("unknown field %q", key)}
		}
		val, err := coercePatchValue(key, col, raw)
		if err != nil {
			return nil, nil, err
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	return sets, args, nil
}

// coercePatchValue normalizes a decoded JSON value for its target column.
// Date columns accept RFC 3339 strings or null; everything else is text.
func coercePatchValue(key, col string, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if strings.HasSuffix(col, "_date") {
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, &lifecycle.ValidationError{Msg: fmt.Sprintf("field %q must be an RFC 3339 timestamp", key)}
			}
			return t, nil
		}
		return nil, &lifecycle.ValidationError{Msg: fmt.Sprintf("field %q must be an RFC 3339 timestamp", key)}
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &lifecycle.ValidationError{Msg: fmt.Sprintf("field %q must be a string", key)}
	}
	return s, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
