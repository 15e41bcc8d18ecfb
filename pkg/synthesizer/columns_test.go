package synthesizer_test

import (
	"testing"

	"synthkit/pkg/datasource"
	"synthkit/pkg/synthesizer"
)

func abcColumns() []datasource.Column {
	return []datasource.Column{
		{Name: "a", DataType: datasource.DataTypeNumerical, VarType: datasource.VarTypeFloat},
		{Name: "b", DataType: datasource.DataTypeString, VarType: datasource.VarTypeString},
		{Name: "c", DataType: datasource.DataTypeCategorical, VarType: datasource.VarTypeString},
	}
}

func TestMergeColumnsExcludeWinsOverGenerate(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTabular, abcColumns(), synthesizer.Attributes{
		Exclude:  []string{"b"},
		Generate: []string{"b", "c"},
	})
	want := map[string]bool{"a": true, "b": false, "c": true}
	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(cols))
	}
	for i, name := range []string{"a", "b", "c"} {
		if cols[i].Name != name {
			t.Fatalf("column %d: expected %s, got %s", i, name, cols[i].Name)
		}
		if cols[i].Generation != want[name] {
			t.Fatalf("column %s: expected generation=%v", name, want[name])
		}
	}
}

func TestMergeColumnsKeepsNativeTypes(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTabular, abcColumns(), synthesizer.Attributes{})
	if cols[1].DataType != datasource.DataTypeString || cols[1].VarType != datasource.VarTypeString {
		t.Fatalf("expected native types on b, got %+v", cols[1])
	}
	for _, c := range cols {
		if c.Entity || c.SortBy != nil || !c.Generation {
			t.Fatalf("unexpected defaults on %+v", c)
		}
	}
}

func TestMergeColumnsStringToCategoricalThroughDataTypes(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTabular, abcColumns(), synthesizer.Attributes{
		DataTypes: map[string]datasource.DataType{"b": datasource.DataTypeCategorical},
	})
	if cols[1].DataType != datasource.DataTypeCategorical {
		t.Fatalf("expected b sent as categorical, got %s", cols[1].DataType)
	}
	if cols[1].VarType != datasource.VarTypeString {
		t.Fatalf("expected var type untouched, got %s", cols[1].VarType)
	}
}

func TestMergeColumnsOverridesOnlyGeneratedColumns(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTabular, abcColumns(), synthesizer.Attributes{
		Exclude: []string{"a"},
		DataTypes: map[string]datasource.DataType{
			"a": datasource.DataTypeCategorical,
			"b": datasource.DataTypeCategorical,
		},
	})
	if cols[0].DataType != datasource.DataTypeNumerical {
		t.Fatalf("excluded column must keep its type, got %s", cols[0].DataType)
	}
	if cols[1].DataType != datasource.DataTypeCategorical {
		t.Fatalf("generated column must take the override, got %s", cols[1].DataType)
	}
}

func TestMergeColumnsTimeseriesFlags(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTimeseries, abcColumns(), synthesizer.Attributes{
		SortBy:        []string{"a"},
		EntityColumns: []string{"c"},
	})
	for _, c := range cols {
		if c.SortBy == nil {
			t.Fatalf("timeseries column %s must carry sortBy", c.Name)
		}
		if *c.SortBy != (c.Name == "a") {
			t.Fatalf("column %s: unexpected sortBy %v", c.Name, *c.SortBy)
		}
		if c.Entity != (c.Name == "c") {
			t.Fatalf("column %s: unexpected entity %v", c.Name, c.Entity)
		}
	}
}

func TestMergeColumnsIgnoresEntityFlagsOutsideTimeseries(t *testing.T) {
	cols := synthesizer.MergeColumns(synthesizer.KindTabular, abcColumns(), synthesizer.Attributes{
		SortBy:        []string{"a"},
		EntityColumns: []string{"c"},
	})
	for _, c := range cols {
		if c.Entity || c.SortBy != nil {
			t.Fatalf("tabular column %s must not carry timeseries flags", c.Name)
		}
	}
}
