package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testToken = "test-token"

type cliTestEnv struct {
	server  *httptest.Server
	service *fakeService
	homeDir string
}

// fakeService is an in-memory stand-in for the synthetic data service.
type fakeService struct {
	mu         sync.Mutex
	posts      map[string][]byte
	sampleCSV  string
	sampleDone bool
}

func (f *fakeService) recordPost(path string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[path] = body
}

func (f *fakeService) posted(t *testing.T, path string) map[string]any {
	t.Helper()
	f.mu.Lock()
	body, ok := f.posts[path]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("expected POST %s", path)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode POST %s body: %v", path, err)
	}
	return out
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SYNTHKIT_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("YDATA_TOKEN", "")
	for _, key := range []string{"SYNTHKIT_S3_ENDPOINT", "SYNTHKIT_S3_ACCESS_KEY", "SYNTHKIT_S3_SECRET_KEY", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"} {
		t.Setenv(key, "")
	}

	service := &fakeService{
		posts:      map[string][]byte{},
		sampleCSV:  "age,city\n31,Lisbon\n42,Porto\n",
		sampleDone: true,
	}
	server := httptest.NewServer(service.handler(t))
	t.Cleanup(server.Close)

	t.Setenv("SYNTHKIT_URL", server.URL)
	t.Setenv("SYNTHKIT_TOKEN", testToken)

	return &cliTestEnv{server: server, service: service, homeDir: homeDir}
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	authorized := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != testToken {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"name":"Unauthorized","description":"bad token"}`)
				return
			}
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				f.recordPost(r.URL.Path, body)
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /connector", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]any{{"uid": "c1", "name": "warehouse", "type": "mysql"}})
	}))
	mux.HandleFunc("GET /datasource/{uid}", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"uid":      r.PathValue("uid"),
			"name":     "census",
			"dataType": "tabular",
			"status":   map[string]any{"state": "AVAILABLE"},
		})
	}))
	mux.HandleFunc("GET /datasource/{uid}/metadata", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"columns": []map[string]any{
			{"name": "age", "dataType": "numerical", "varType": "int"},
			{"name": "city", "dataType": "categorical", "varType": "string"},
		}})
	}))
	mux.HandleFunc("POST /datasource/", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"uid": "d2", "name": "orders", "dataType": "tabular", "status": "PREPARING"})
	}))
	mux.HandleFunc("POST /synthesizer/", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"uid": "s1", "status": map[string]any{"state": "PREPARE"}})
	}))
	mux.HandleFunc("GET /synthesizer", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, []map[string]any{{
			"uid":        "s1",
			"name":       "census-synth",
			"status":     map[string]any{"state": "READY"},
			"dataSource": map[string]any{"uid": "d1", "dataType": "tabular"},
			"metadata":   map[string]any{"columns": []any{}},
			"createdAt":  "2026-10-01T09:30:00Z",
		}})
	}))
	mux.HandleFunc("GET /synthesizer/{uid}", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"uid":        r.PathValue("uid"),
			"name":       "census-synth",
			"status":     map[string]any{"state": "READY", "training": map[string]any{"state": "FINISHED"}},
			"dataSource": map[string]any{"uid": "d1", "dataType": "tabular"},
		})
	}))
	mux.HandleFunc("POST /synthesizer/{uid}/sample", authorized(func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"uid": "smp1"})
	}))
	mux.HandleFunc("GET /synthesizer/{uid}/history", authorized(func(w http.ResponseWriter, r *http.Request) {
		state := "running"
		if f.sampleDone {
			state = "finished"
		}
		reply(w, []map[string]any{{"uid": "smp1", "status": map[string]any{"state": state}}})
	}))
	mux.HandleFunc("GET /synthesizer/{uid}/sample/{sid}/sample.csv", authorized(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, f.sampleCSV)
	}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return mux
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}
