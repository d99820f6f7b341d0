package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON stores a raw JSON document in a text/jsonb column
type JSON json.RawMessage

// Value returns the JSON value to be stored in the database
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan reads a JSON value from the database
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = JSON("null")
	case []byte:
		*j = append(JSON(nil), v...)
	case string:
		*j = JSON(v)
	default:
		return errors.New("invalid scan source for JSON")
	}
	return nil
}

// MarshalJSON embeds the stored document as-is
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON sets *j to a copy of data
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}
