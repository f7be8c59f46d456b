package civic

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/Devcode940/kenyawatch/internal/table"
)

// ToRow flattens a record into a table row keyed by its JSON field names.
// Empty optional fields are left out so they resolve as absent; nested
// structs become nested rows.
func ToRow(v any) (table.Row, error) {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to convert %T to row: %w", v, err)
	}
	return table.Row(out), nil
}

// ToRows converts a slice of records.
func ToRows[T any](items []T) ([]table.Row, error) {
	rows := make([]table.Row, 0, len(items))
	for i := range items {
		row, err := ToRow(items[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
