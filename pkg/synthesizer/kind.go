package synthesizer

import (
	"fmt"

	"synthkit/pkg/datasource"
)

// Kind selects the validation, column payload and sample payload rules of a job.
// It mirrors the datasource type the job trains on.
type Kind string

const (
	KindTabular    Kind = Kind(datasource.TypeTabular)
	KindTimeseries Kind = Kind(datasource.TypeTimeseries)
	KindMultiTable Kind = Kind(datasource.TypeMultiTable)
)

// ParseKind accepts the same spellings as datasource.ParseType.
func ParseKind(raw string) (Kind, error) {
	t, err := datasource.ParseType(raw)
	if err != nil {
		return "", fmt.Errorf("synthesizer: unknown kind %q", raw)
	}
	return Kind(t), nil
}

// kindRules holds everything that differs between kinds.
type kindRules struct {
	// validate adds kind-specific problems to verr.
	validate func(attrs Attributes, verr *ValidationError)
	// decorate sets kind-specific column flags after the defaults are built.
	decorate func(cols []ColumnPayload, index map[string]int, attrs Attributes)
	// samplePayload turns caller parameters into the sample request body.
	samplePayload func(params SampleParams) (any, error)
}

var kinds = map[Kind]kindRules{
	KindTabular: {
		validate:      func(Attributes, *ValidationError) {},
		decorate:      func([]ColumnPayload, map[string]int, Attributes) {},
		samplePayload: tabularSample,
	},
	KindTimeseries: {
		validate:      validateTimeseries,
		decorate:      decorateTimeseries,
		samplePayload: timeseriesSample,
	},
	KindMultiTable: {
		validate:      func(Attributes, *ValidationError) {},
		decorate:      func([]ColumnPayload, map[string]int, Attributes) {},
		samplePayload: multiTableSample,
	},
}

func rulesFor(kind Kind) (kindRules, error) {
	rules, ok := kinds[kind]
	if !ok {
		return kindRules{}, fmt.Errorf("synthesizer: unsupported kind %q", kind)
	}
	return rules, nil
}

func validateTimeseries(attrs Attributes, verr *ValidationError) {
	if len(attrs.SortBy) == 0 {
		verr.addReason("sort_by is mandatory for timeseries datasources")
	}
}

func decorateTimeseries(cols []ColumnPayload, index map[string]int, attrs Attributes) {
	sortKeys := toSet(attrs.SortBy)
	for i := range cols {
		_, sortBy := sortKeys[cols[i].Name]
		cols[i].SortBy = &sortBy
	}
	for _, name := range attrs.EntityColumns {
		if i, ok := index[name]; ok {
			cols[i].Entity = true
		}
	}
}

// recordsPayload is shared by tabular and timeseries requests. Timeseries sends
// null to sample as many entities as the training data had.
type recordsPayload struct {
	NumberOfRecords *int `json:"numberOfRecords"`
}

type fractionPayload struct {
	Fraction float64 `json:"fraction"`
}

func tabularSample(params SampleParams) (any, error) {
	if params.Entities != nil || params.Fraction != nil {
		return nil, fmt.Errorf("%w: tabular synthesizers sample by records only", ErrInvalidInput)
	}
	records := 1
	if params.Records != nil {
		records = *params.Records
	}
	if records < 1 {
		return nil, fmt.Errorf("%w: records must be greater than 0", ErrInvalidInput)
	}
	return recordsPayload{NumberOfRecords: &records}, nil
}

func timeseriesSample(params SampleParams) (any, error) {
	if params.Records != nil || params.Fraction != nil {
		return nil, fmt.Errorf("%w: timeseries synthesizers sample by entities only", ErrInvalidInput)
	}
	if params.Entities != nil && *params.Entities < 1 {
		return nil, fmt.Errorf("%w: entities must be greater than 0", ErrInvalidInput)
	}
	return recordsPayload{NumberOfRecords: params.Entities}, nil
}

func multiTableSample(params SampleParams) (any, error) {
	if params.Records != nil || params.Entities != nil {
		return nil, fmt.Errorf("%w: multitable synthesizers sample by fraction only", ErrInvalidInput)
	}
	fraction := 1.0
	if params.Fraction != nil {
		fraction = *params.Fraction
	}
	if fraction <= 0 {
		return nil, fmt.Errorf("%w: fraction must be greater than 0", ErrInvalidInput)
	}
	return fractionPayload{Fraction: fraction}, nil
}
