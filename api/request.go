package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// naiveLayout is accepted for timestamps sent without an offset; they are
// read as UTC.
const naiveLayout = "2006-01-02T15:04:05"

// Timestamp is an RFC 3339 instant in request bodies.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	parsed, err := parseTimestamp(raw)

	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.UTC(), nil
	}

	parsed, err := time.ParseInLocation(naiveLayout, raw, time.UTC)

	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}

	return parsed, nil
}

// optional records whether a field was present in a request body. An
// explicit null counts as present and is flagged rather than read as absent.
type optional[T any] struct {
	Value   T
	Present bool
	Null    bool
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		o.Present = true
		o.Null = true
		return nil
	}

	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}

	o.Present = true

	return nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)

	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)

	if err != nil {
		return 0, fmt.Errorf("%v must be an integer", key)
	}

	return value, nil
}

// page reads skip and limit; the services clamp them to their bounds.
func page(c *gin.Context) (int, int, error) {
	skip, err := queryInt(c, "skip")

	if err != nil {
		return 0, 0, err
	}

	limit, err := queryInt(c, "limit")

	if err != nil {
		return 0, 0, err
	}

	return skip, limit, nil
}
