// Package synthesizer drives remote synthesizer jobs: it builds the creation
// payload from datasource metadata, submits it, polls the job until it is
// terminal and then requests and downloads samples.
//
// A Synthesizer handle is not safe for concurrent use. Independent handles may
// run concurrently over one Client.
package synthesizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"synthkit/internal/logging"
	"synthkit/internal/poll"
	"synthkit/pkg/datasource"
)

// DefaultPollInterval is the wait between status reads.
const DefaultPollInterval = 10 * time.Second

// Transport is the subset of the HTTP transport the lifecycle client needs.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, payload any, out any) error
	GetStatic(ctx context.Context, path string) ([]byte, error)
}

// Client creates and looks up synthesizer handles.
type Client struct {
	transport Transport
	logger    *slog.Logger
	sleep     poll.Sleeper
}

// Option customizes the client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "synthesizer")
		}
	}
}

// WithSleeper replaces the wait between polls (tests).
func WithSleeper(sleeper poll.Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleep = sleeper
		}
	}
}

// New wraps a transport.
func New(t Transport, opts ...Option) *Client {
	c := &Client{transport: t, logger: logging.NewNop(), sleep: poll.Sleep}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesizer is a handle on one remote job. It is bound to a job uid by Submit
// (or Client.Get) and cannot be rebound.
type Synthesizer struct {
	client *Client
	kind   Kind
	uid    string
	name   string
	status Status
}

// New returns an unsubmitted handle of the given kind.
func (c *Client) New(kind Kind) *Synthesizer {
	return &Synthesizer{
		client: c,
		kind:   kind,
		status: Status{State: StateNotInitialized},
	}
}

// UID is empty until the handle is submitted.
func (s *Synthesizer) UID() string { return s.uid }

func (s *Synthesizer) Kind() Kind { return s.kind }

func (s *Synthesizer) Name() string { return s.name }

// LastStatus returns the status seen by the last poll without a request.
func (s *Synthesizer) LastStatus() Status { return s.status }

func (s *Synthesizer) initialized() bool { return s.uid != "" }

// record is the synthesizer resource as returned by the service.
type record struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Status     apiStatus `json:"status"`
	DataSource *struct {
		UID      string `json:"uid"`
		DataType string `json:"dataType"`
	} `json:"dataSource"`
}

type createPayload struct {
	Name          string         `json:"name"`
	DataSourceUID string         `json:"dataSourceUID"`
	Metadata      createMetadata `json:"metadata"`
	ExtraData     extraData      `json:"extraData"`
}

type createMetadata struct {
	DataType Kind            `json:"dataType"`
	Columns  []ColumnPayload `json:"columns"`
	Target   string          `json:"target,omitempty"`
}

type extraData struct {
	PrivacyLevel PrivacyLevel   `json:"privacy_level"`
	Anonymize    map[string]any `json:"anonymize,omitempty"`
	ConditionOn  []string       `json:"condition_on,omitempty"`
}

// Submit validates spec, checks that the datasource is available and creates the
// remote job. It does not wait for training; see AwaitCompletion and Fit.
//
// Errors, in check order: ErrAlreadyFitted, *ValidationError,
// datasource.ErrNotAvailable, then transport errors.
func (s *Synthesizer) Submit(ctx context.Context, spec Spec) error {
	if s.initialized() {
		return fmt.Errorf("%w: uid %s", ErrAlreadyFitted, s.uid)
	}
	ds := spec.DataSource
	if ds == nil {
		return &ValidationError{Reasons: []string{"a datasource is required"}}
	}

	kind, err := s.resolveKind(ds)
	if err != nil {
		return err
	}
	rules, err := rulesFor(kind)
	if err != nil {
		return &ValidationError{Reasons: []string{err.Error()}}
	}
	if err := validate(rules, ds, spec); err != nil {
		return err
	}
	if err := datasource.RequireAvailable(ds); err != nil {
		return err
	}

	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = uuid.NewString()
	}
	privacy, _ := ParsePrivacyLevel(string(spec.PrivacyLevel))
	payload := createPayload{
		Name:          name,
		DataSourceUID: ds.UID,
		Metadata: createMetadata{
			DataType: kind,
			Columns:  MergeColumns(kind, ds.Columns, spec.Attributes),
			Target:   strings.TrimSpace(spec.Target),
		},
		ExtraData: extraData{
			PrivacyLevel: privacy,
			Anonymize:    spec.Anonymize,
			ConditionOn:  spec.Condition,
		},
	}

	var created record
	if err := s.client.transport.Post(ctx, "/synthesizer/", payload, &created); err != nil {
		return fmt.Errorf("synthesizer: submit %q: %w", name, err)
	}
	if strings.TrimSpace(created.UID) == "" {
		return fmt.Errorf("synthesizer: submit %q: response carried no uid", name)
	}

	s.uid = created.UID
	s.kind = kind
	s.name = name
	if created.Name != "" {
		s.name = created.Name
	}
	s.status = resolveStatus(created.Status)
	s.client.logger.Info("synthesizer submitted",
		logging.String(logging.FieldUID, s.uid),
		logging.String("name", s.name),
		logging.String("kind", string(kind)),
		logging.String("datasource", ds.UID),
	)
	return nil
}

// resolveKind lets the datasource type win over the handle kind.
func (s *Synthesizer) resolveKind(ds *datasource.DataSource) (Kind, error) {
	dsKind, err := ParseKind(string(ds.DataType))
	if err != nil {
		return "", &ValidationError{Reasons: []string{fmt.Sprintf("datasource %q has unknown data type %q", ds.UID, ds.DataType)}}
	}
	if s.kind != "" && s.kind != dsKind {
		s.client.logger.Warn("handle kind ignored, using datasource data type",
			logging.String("kind", string(s.kind)),
			logging.String("datasource_type", string(dsKind)),
		)
	}
	return dsKind, nil
}

// AwaitCompletion polls the job every interval until it is READY or REPORT, which is
// returned, or FAILED, returned as a *FittingError. Transport errors end the wait and are
// returned wrapped; they are not retried. Cancel ctx to stop waiting.
func (s *Synthesizer) AwaitCompletion(ctx context.Context, interval time.Duration) (Status, error) {
	if !s.initialized() {
		return s.status, ErrNotInitialized
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	err := poll.Until(ctx, interval, s.client.sleep, func(ctx context.Context, _ int) (bool, error) {
		status, err := s.fetchStatus(ctx)
		if err != nil {
			return false, err
		}
		s.status = status
		switch {
		case status.State == StateFailed:
			return false, &FittingError{UID: s.uid, Status: status}
		case status.State.Succeeded():
			return true, nil
		}
		s.client.logger.Info("Training the synthesizer...",
			logging.String(logging.FieldUID, s.uid),
			logging.String(logging.FieldState, string(status.State)),
		)
		return false, nil
	})
	if err != nil {
		var fitErr *FittingError
		if errors.As(err, &fitErr) {
			return s.status, err
		}
		return s.status, fmt.Errorf("synthesizer: await %s: %w", s.uid, err)
	}
	s.client.logger.Info("synthesizer trained",
		logging.String(logging.FieldUID, s.uid),
		logging.String(logging.FieldState, string(s.status.State)),
	)
	return s.status, nil
}

// Fit submits spec and waits for training to finish.
func (s *Synthesizer) Fit(ctx context.Context, spec Spec, interval time.Duration) (Status, error) {
	if err := s.Submit(ctx, spec); err != nil {
		return s.status, err
	}
	return s.AwaitCompletion(ctx, interval)
}

// Status reads the current job status. It never fails: an unsubmitted handle reports
// NOT_INITIALIZED and a failed read reports UNKNOWN.
func (s *Synthesizer) Status(ctx context.Context) Status {
	if !s.initialized() {
		return Status{State: StateNotInitialized}
	}
	status, err := s.fetchStatus(ctx)
	if err != nil {
		s.client.logger.Debug("status read failed",
			logging.String(logging.FieldUID, s.uid),
			logging.Error(err),
		)
		return Status{State: StateUnknown}
	}
	s.status = status
	return status
}

func (s *Synthesizer) fetchStatus(ctx context.Context) (Status, error) {
	var rec record
	if err := s.client.transport.Get(ctx, "/synthesizer/"+s.uid, &rec); err != nil {
		return Status{}, err
	}
	return resolveStatus(rec.Status), nil
}

// Get binds a handle to an existing job. The kind comes from the job's datasource.
func (c *Client) Get(ctx context.Context, uid string) (*Synthesizer, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, errors.New("synthesizer: uid is required")
	}
	var rec record
	if err := c.transport.Get(ctx, "/synthesizer/"+uid, &rec); err != nil {
		return nil, fmt.Errorf("synthesizer: get %s: %w", uid, err)
	}
	if rec.DataSource == nil {
		return nil, fmt.Errorf("synthesizer: get %s: response has no datasource", uid)
	}
	kind, err := ParseKind(rec.DataSource.DataType)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: get %s: %w", uid, err)
	}
	if rec.UID == "" {
		rec.UID = uid
	}
	return &Synthesizer{
		client: c,
		kind:   kind,
		uid:    rec.UID,
		name:   rec.Name,
		status: resolveStatus(rec.Status),
	}, nil
}

// Summary is one entry of List.
type Summary struct {
	UID           string `json:"uid"`
	Name          string `json:"name"`
	Status        Status `json:"status"`
	Kind          Kind   `json:"kind,omitempty"`
	DataSourceUID string `json:"dataSourceUID,omitempty"`
	// Fields holds the remaining top-level fields of the entry (createdAt, author, ...).
	Fields map[string]any `json:"fields,omitempty"`
}

// listDropped are heavy fields the listing leaves out.
var listDropped = []string{"metadata", "report", "mode"}

// List returns every synthesizer visible to the token.
func (c *Client) List(ctx context.Context) ([]Summary, error) {
	var raw []map[string]json.RawMessage
	if err := c.transport.Get(ctx, "/synthesizer", &raw); err != nil {
		return nil, fmt.Errorf("synthesizer: list: %w", err)
	}
	out := make([]Summary, 0, len(raw))
	for _, entry := range raw {
		for _, key := range listDropped {
			delete(entry, key)
		}
		summary, err := summarize(entry)
		if err != nil {
			return nil, fmt.Errorf("synthesizer: list: %w", err)
		}
		out = append(out, summary)
	}
	return out, nil
}

func summarize(entry map[string]json.RawMessage) (Summary, error) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return Summary{}, err
	}
	var rec record
	if err := json.Unmarshal(encoded, &rec); err != nil {
		return Summary{}, err
	}
	summary := Summary{
		UID:    rec.UID,
		Name:   rec.Name,
		Status: resolveStatus(rec.Status),
		Fields: make(map[string]any, len(entry)),
	}
	if rec.DataSource != nil {
		summary.DataSourceUID = rec.DataSource.UID
		if kind, err := ParseKind(rec.DataSource.DataType); err == nil {
			summary.Kind = kind
		}
	}
	for key, value := range entry {
		switch key {
		case "uid", "name", "status", "dataSource":
			continue
		}
		var decoded any
		if err := json.Unmarshal(value, &decoded); err == nil {
			summary.Fields[key] = decoded
		}
	}
	return summary, nil
}
