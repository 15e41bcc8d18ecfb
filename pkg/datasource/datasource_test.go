package datasource_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"synthkit/pkg/datasource"
	"synthkit/pkg/transport"
)

func newClient(t *testing.T, handler http.HandlerFunc, opts ...datasource.Option) *datasource.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tr, err := transport.New(transport.Config{BaseURL: srv.URL, Token: "tok", RateLimit: -1})
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	return datasource.New(tr, opts...)
}

func noSleep(sleeps *int) datasource.Option {
	return datasource.WithSleeper(func(ctx context.Context, _ time.Duration) error {
		*sleeps++
		return ctx.Err()
	})
}

func TestGetMergesMetadata(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/datasource/ds1":
			_, _ = w.Write([]byte(`{"uid":"ds1","name":"census","dataType":"TABULAR","status":{"state":"available"}}`))
		case "/datasource/ds1/metadata":
			_, _ = w.Write([]byte(`{"columns":[{"name":"age","dataType":"numerical","varType":"int"},{"name":"city","dataType":"categorical","varType":"string"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	ds, err := client.Get(t.Context(), "ds1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ds.DataType != datasource.TypeTabular {
		t.Fatalf("expected tabular, got %q", ds.DataType)
	}
	if ds.Status != datasource.StatusAvailable || !ds.Available() {
		t.Fatalf("expected available, got %q", ds.Status)
	}
	names := ds.ColumnNames()
	if len(names) != 2 || names[0] != "age" || names[1] != "city" {
		t.Fatalf("unexpected columns %v", names)
	}
	if ds.Columns[0].VarType != datasource.VarTypeInt {
		t.Fatalf("unexpected var type %q", ds.Columns[0].VarType)
	}
}

func TestParseStatusIsCaseInsensitive(t *testing.T) {
	cases := map[string]datasource.Status{
		"Available":  datasource.StatusAvailable,
		"preparing":  datasource.StatusPreparing,
		"pending":    datasource.StatusPreparing,
		"VALIDATING": datasource.StatusValidating,
		"failed":     datasource.StatusFailed,
		"weird":      datasource.StatusUnknown,
		"":           datasource.StatusUnknown,
	}
	for raw, want := range cases {
		if got := datasource.ParseStatus(raw); got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseType(t *testing.T) {
	for raw, want := range map[string]datasource.Type{
		"TABULAR":    datasource.TypeTabular,
		"timeseries": datasource.TypeTimeseries,
		"multiTable": datasource.TypeMultiTable,
	} {
		got, err := datasource.ParseType(raw)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := datasource.ParseType("graph"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestCreateMySQLPayload(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/datasource/" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload["name"] != "berka" || payload["dataType"] != "tabular" || payload["query"] != "SELECT * FROM trans;" {
			t.Fatalf("unexpected payload %v", payload)
		}
		conn, _ := payload["connector"].(map[string]any)
		if conn["uid"] != "c1" {
			t.Fatalf("connector uid missing: %v", payload)
		}
		if _, ok := payload["tables"]; ok {
			t.Fatalf("empty tables should be omitted: %v", payload)
		}
		_, _ = w.Write([]byte(`{"uid":"ds9","name":"berka","dataType":"tabular","status":"preparing"}`))
	})

	ds, err := client.Create(t.Context(), datasource.CreateRequest{
		Name:         "berka",
		DataType:     datasource.TypeTabular,
		ConnectorUID: "c1",
		Config:       datasource.MySQL("SELECT * FROM trans;", nil),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ds.UID != "ds9" || ds.Status != datasource.StatusPreparing {
		t.Fatalf("unexpected datasource %+v", ds)
	}
}

func statusServer(states ...string) (http.HandlerFunc, *int32) {
	var calls int32
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/datasource/ds1/metadata" {
			_, _ = w.Write([]byte(`{"columns":[]}`))
			return
		}
		n := atomic.AddInt32(&calls, 1)
		idx := int(n) - 1
		if idx >= len(states) {
			idx = len(states) - 1
		}
		_, _ = w.Write([]byte(`{"uid":"ds1","dataType":"tabular","status":"` + states[idx] + `"}`))
	}, &calls
}

func TestWaitAvailablePollsUntilAvailable(t *testing.T) {
	handler, calls := statusServer("preparing", "validating", "available")
	var sleeps int
	client := newClient(t, handler, noSleep(&sleeps))

	ds, err := client.WaitAvailable(t.Context(), "ds1", time.Second)
	if err != nil {
		t.Fatalf("WaitAvailable: %v", err)
	}
	if ds.Status != datasource.StatusAvailable {
		t.Fatalf("expected available, got %q", ds.Status)
	}
	if got := atomic.LoadInt32(calls); got != 3 {
		t.Fatalf("expected 3 polls, got %d", got)
	}
	if sleeps != 2 {
		t.Fatalf("expected 2 sleeps, got %d", sleeps)
	}
}

func TestWaitAvailableStopsOnFailure(t *testing.T) {
	handler, calls := statusServer("preparing", "failed", "available")
	var sleeps int
	client := newClient(t, handler, noSleep(&sleeps))

	_, err := client.WaitAvailable(t.Context(), "ds1", time.Second)
	if !errors.Is(err, datasource.ErrFailed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected polling to stop after failure, got %d polls", got)
	}
}

func TestRequireAvailable(t *testing.T) {
	if err := datasource.RequireAvailable(&datasource.DataSource{UID: "x", Status: datasource.StatusAvailable}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := datasource.RequireAvailable(&datasource.DataSource{UID: "x", Status: datasource.StatusPreparing})
	if !errors.Is(err, datasource.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}
