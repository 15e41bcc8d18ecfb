package synthesizer

import (
	"sort"

	"synthkit/pkg/datasource"
)

// ColumnPayload is the per-column record of a creation request.
type ColumnPayload struct {
	Name       string              `json:"name"`
	Generation bool                `json:"generation"`
	DataType   datasource.DataType `json:"dataType"`
	VarType    datasource.VarType  `json:"varType"`
	Entity     bool                `json:"entity"`
	// SortBy is only sent for timeseries jobs.
	SortBy *bool `json:"sortBy,omitempty"`
}

// MergeColumns builds the column payload for kind from the datasource columns and
// the attributes, in datasource order:
//
//  1. every column is generated with its native data and var types
//  2. kind rules apply (timeseries: sortBy and entity flags)
//  3. Generate marks columns for generation
//  4. Exclude unmarks them, so it wins over Generate
//  5. DataTypes overrides the data type of columns still generated
//
// Names that are not datasource columns are ignored; validation rejects them earlier.
//
// Native types are sent unchanged. In particular a string column stays string; callers
// that want the service to treat it as categorical set DataTypes[name] to
// datasource.DataTypeCategorical.
func MergeColumns(kind Kind, columns []datasource.Column, attrs Attributes) []ColumnPayload {
	out := make([]ColumnPayload, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		out[i] = ColumnPayload{
			Name:       c.Name,
			Generation: true,
			DataType:   c.DataType,
			VarType:    c.VarType,
		}
		index[c.Name] = i
	}

	if rules, ok := kinds[kind]; ok {
		rules.decorate(out, index, attrs)
	}

	for _, name := range attrs.Generate {
		if i, ok := index[name]; ok {
			out[i].Generation = true
		}
	}
	for _, name := range attrs.Exclude {
		if i, ok := index[name]; ok {
			out[i].Generation = false
		}
	}
	for name, dt := range attrs.DataTypes {
		if i, ok := index[name]; ok && out[i].Generation {
			out[i].DataType = dt
		}
	}
	return out
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
