package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray stores a list of strings as a JSON column. Product option lists
// (colors, sizes, rams) use it so the same model works on postgres and the
// sqlite test driver.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(a))
	if err != nil {
		return nil, fmt.Errorf("marshal string array: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported string array source %T", value)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(a))
}
