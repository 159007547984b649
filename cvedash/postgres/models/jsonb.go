package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores an arbitrary JSON document in a jsonb column. The upstream CVE
// feed does not guarantee a schema, so the document is kept loosely typed and
// interpreted defensively at read time.
type JSONB map[string]interface{}

// Value implements driver.Valuer for writing the document.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for reading the document.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONB: %T", value)
	}

	return json.Unmarshal(data, j)
}
