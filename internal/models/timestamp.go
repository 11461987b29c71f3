package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

// ParseTimestamp decodes the timestamp formats vendors send:
// RFC 3339 strings, numeric strings and JSON numbers holding epoch
// seconds or milliseconds. Returns false when nothing usable is present.
func ParseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return time.Time{}, false
		}
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts, true
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return fromEpoch(n), true
		}
		return time.Time{}, false
	case float64:
		return fromEpoch(v), true
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(n), true
	default:
		return time.Time{}, false
	}
}

func fromEpoch(n float64) time.Time {
	if n >= epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
