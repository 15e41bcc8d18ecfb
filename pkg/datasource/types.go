package datasource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the shape of a dataset. Synthesizer kinds reuse it.
type Type string

const (
	TypeTabular    Type = "tabular"
	TypeTimeseries Type = "timeseries"
	TypeMultiTable Type = "multiTable"
)

// ParseType maps a wire or user-supplied name onto a Type, ignoring case.
func ParseType(raw string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tabular":
		return TypeTabular, nil
	case "timeseries", "time-series", "time_series":
		return TypeTimeseries, nil
	case "multitable", "multi-table", "multi_table":
		return TypeMultiTable, nil
	default:
		return "", fmt.Errorf("datasource: unknown data type %q", raw)
	}
}

// UnmarshalJSON accepts any casing the service emits.
func (t *Type) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*t = ""
		return nil
	}
	parsed, err := ParseType(raw)
	if err != nil {
		// Keep the raw value so callers can report it.
		*t = Type(raw)
		return nil
	}
	*t = parsed
	return nil
}

// Status is the availability of a datasource.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusPreparing   Status = "PREPARING"
	StatusValidating  Status = "VALIDATING"
	StatusFailed      Status = "FAILED"
	StatusUnavailable Status = "UNAVAILABLE"
	StatusUnknown     Status = "UNKNOWN"
)

// ParseStatus is case-insensitive; unrecognised values map to StatusUnknown.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "AVAILABLE":
		return StatusAvailable
	case "PREPARING", "PENDING":
		return StatusPreparing
	case "VALIDATING":
		return StatusValidating
	case "FAILED":
		return StatusFailed
	case "UNAVAILABLE":
		return StatusUnavailable
	default:
		return StatusUnknown
	}
}

// UnmarshalJSON accepts either a bare string or a {"state": "..."} object.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*s = ParseStatus(raw)
		return nil
	}
	var nested struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		*s = StatusUnknown
		return nil
	}
	*s = ParseStatus(nested.State)
	return nil
}

// DataType is the semantic type of a column.
type DataType string

const (
	DataTypeNumerical   DataType = "numerical"
	DataTypeCategorical DataType = "categorical"
	DataTypeDate        DataType = "date"
	DataTypeString      DataType = "string"
	DataTypeLongText    DataType = "longtext"
)

// ParseDataType validates a column data type name.
func ParseDataType(raw string) (DataType, error) {
	switch dt := DataType(strings.ToLower(strings.TrimSpace(raw))); dt {
	case DataTypeNumerical, DataTypeCategorical, DataTypeDate, DataTypeString, DataTypeLongText:
		return dt, nil
	default:
		return "", fmt.Errorf("datasource: unknown column data type %q", raw)
	}
}

// VarType is the storage type of a column.
type VarType string

const (
	VarTypeInt      VarType = "int"
	VarTypeFloat    VarType = "float"
	VarTypeString   VarType = "string"
	VarTypeBool     VarType = "bool"
	VarTypeDatetime VarType = "datetime"
	VarTypeDate     VarType = "date"
)

// Column is one entry of the datasource metadata.
type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	VarType  VarType  `json:"varType"`
}

// ConnectorRef identifies the connector a datasource reads through.
type ConnectorRef struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// DataSource is a snapshot of a remote datasource. Refresh it with Client.Get.
type DataSource struct {
	UID       string        `json:"uid"`
	Name      string        `json:"name"`
	DataType  Type          `json:"dataType"`
	Status    Status        `json:"status"`
	Connector *ConnectorRef `json:"connector,omitempty"`
	Columns   []Column      `json:"columns,omitempty"`
}

// ColumnNames returns the column names in metadata order.
func (d *DataSource) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

// ColumnSet returns the column names as a lookup set.
func (d *DataSource) ColumnSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Columns))
	for _, c := range d.Columns {
		set[c.Name] = struct{}{}
	}
	return set
}

// Available reports whether the datasource can be used for training.
func (d *DataSource) Available() bool {
	return d != nil && d.Status == StatusAvailable
}
