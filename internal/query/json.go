package query

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// decodeJSON renders a datatypes.JSON column as a generic value for
// re-serialization in a response body, eliding entirely when empty
// (spec.md §4.5 fields=io elision).
func decodeJSON(raw datatypes.JSON) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
