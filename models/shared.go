package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque API identifier. The clinic API sends integers, but the
// frontend never does arithmetic on them, so they are kept as strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s, err := decodeLoose(data)
	if err != nil {
		return err
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string { return string(id) }

// Text decodes a JSON string, number or bool into a string. Used for fields
// such as price or discount that the API is inconsistent about.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	s, err := decodeLoose(data)
	if err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

func (t Text) String() string { return string(t) }

func decodeLoose(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if data[0] == '{' {
		// nested object: take its name or id
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", err
		}
		for _, key := range []string{"name", "title", "id"} {
			if raw, ok := obj[key]; ok {
				return decodeLoose(raw)
			}
		}
		return "", nil
	}
	return strings.Trim(string(data), `"`), nil
}

// Timestamp accepts RFC 3339 with or without a zone, and plain dates.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := decodeLoose(data)
	if err != nil || s == "" {
		t.Time = time.Time{}
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, perr := time.ParseInLocation(layout, s, time.Local); perr == nil {
			t.Time = parsed
			return nil
		}
	}
	if unix, perr := strconv.ParseInt(s, 10, 64); perr == nil {
		t.Time = time.Unix(unix, 0)
		return nil
	}
	return &time.ParseError{Layout: time.RFC3339, Value: s}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
