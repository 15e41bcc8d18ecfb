package synthesizer

import (
	"strings"

	"synthkit/pkg/datasource"
)

// Attributes describe how the datasource columns take part in training.
// Every column named here must exist in the datasource.
type Attributes struct {
	// SortBy orders timeseries rows. Required for timeseries jobs.
	SortBy []string
	// EntityColumns identify the entities of a timeseries.
	EntityColumns []string
	// Generate and Exclude select the synthesized columns. Exclude wins when a
	// column is named by both.
	Generate []string
	Exclude  []string
	// DataTypes overrides the datasource data type of generated columns.
	DataTypes map[string]datasource.DataType
}

// PrivacyLevel trades fidelity against privacy in the remote training.
type PrivacyLevel string

const (
	HighFidelity            PrivacyLevel = "HIGH_FIDELITY"
	HighPrivacy             PrivacyLevel = "HIGH_PRIVACY"
	BalancedPrivacyFidelity PrivacyLevel = "BALANCED_PRIVACY_FIDELITY"
)

// ParsePrivacyLevel accepts the level names in any case; empty means HighFidelity.
func ParsePrivacyLevel(raw string) (PrivacyLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))) {
	case "", string(HighFidelity):
		return HighFidelity, true
	case string(HighPrivacy):
		return HighPrivacy, true
	case string(BalancedPrivacyFidelity):
		return BalancedPrivacyFidelity, true
	default:
		return "", false
	}
}

// Spec is a job specification. DataSource must carry its column metadata
// (datasource.Client.Get fetches it).
type Spec struct {
	// Name defaults to a random UUID.
	Name         string
	DataSource   *datasource.DataSource
	PrivacyLevel PrivacyLevel
	Attributes   Attributes
	// Target is an optional column the model should predict well.
	Target string
	// Anonymize maps columns to anonymization strategies; forwarded as is.
	Anonymize map[string]any
	// Condition lists columns later samples may be conditioned on.
	Condition []string
}

// validate checks the attributes against the datasource columns. It never touches the network.
func validate(rules kindRules, ds *datasource.DataSource, spec Spec) error {
	verr := &ValidationError{}
	columns := ds.ColumnSet()

	if target := strings.TrimSpace(spec.Target); target != "" {
		if _, ok := columns[target]; !ok {
			verr.addReason("invalid target: column %q does not exist", target)
		}
	}
	if _, ok := ParsePrivacyLevel(string(spec.PrivacyLevel)); !ok {
		verr.addReason("unknown privacy level %q", spec.PrivacyLevel)
	}

	attrs := spec.Attributes
	rules.validate(attrs, verr)

	verr.addMissing("sort_by", missing(columns, attrs.SortBy))
	verr.addMissing("entity_columns", missing(columns, attrs.EntityColumns))
	verr.addMissing("generate", missing(columns, attrs.Generate))
	verr.addMissing("exclude", missing(columns, attrs.Exclude))
	verr.addMissing("condition_on", missing(columns, spec.Condition))

	dtypeColumns := make([]string, 0, len(attrs.DataTypes))
	for name, dt := range attrs.DataTypes {
		dtypeColumns = append(dtypeColumns, name)
		if _, err := datasource.ParseDataType(string(dt)); err != nil {
			verr.addReason("unknown data type %q for column %q", dt, name)
		}
	}
	verr.addMissing("dtypes", sortedCopy(missing(columns, dtypeColumns)))

	if verr.empty() {
		return nil
	}
	return verr
}

func missing(columns map[string]struct{}, names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := columns[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
