package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"synthkit/internal/logging"
	"synthkit/internal/poll"
)

// SampleParams size a sample request. Which field applies depends on the kind:
// Records for tabular (default 1), Entities for timeseries (nil samples as many
// entities as the training data), Fraction for multitable (default 1).
type SampleParams struct {
	Records  *int
	Entities *int
	Fraction *float64
}

// Records is shorthand for a tabular sample of n rows.
func Records(n int) SampleParams { return SampleParams{Records: &n} }

// Entities is shorthand for a timeseries sample of n entities.
func Entities(n int) SampleParams { return SampleParams{Entities: &n} }

// Fraction is shorthand for a multitable sample scaled by f.
func Fraction(f float64) SampleParams { return SampleParams{Fraction: &f} }

// SampleHandle identifies a sample job of a synthesizer.
type SampleHandle struct {
	SynthesizerUID string `json:"synthesizerUID"`
	UID            string `json:"uid"`
}

type sampleCreated struct {
	UID string `json:"uid"`
}

type historyEntry struct {
	UID    string `json:"uid"`
	Status struct {
		State string `json:"state"`
	} `json:"status"`
}

// RequestSample starts a sample job. Parameters are checked against the kind before
// any request and rejected with ErrInvalidInput.
func (s *Synthesizer) RequestSample(ctx context.Context, params SampleParams) (SampleHandle, error) {
	if !s.initialized() {
		return SampleHandle{}, ErrNotInitialized
	}
	rules, err := rulesFor(s.kind)
	if err != nil {
		return SampleHandle{}, err
	}
	payload, err := rules.samplePayload(params)
	if err != nil {
		return SampleHandle{}, err
	}
	var created sampleCreated
	if err := s.client.transport.Post(ctx, "/synthesizer/"+s.uid+"/sample", payload, &created); err != nil {
		return SampleHandle{}, fmt.Errorf("synthesizer: request sample from %s: %w", s.uid, err)
	}
	if strings.TrimSpace(created.UID) == "" {
		return SampleHandle{}, fmt.Errorf("synthesizer: request sample from %s: response carried no uid", s.uid)
	}
	s.client.logger.Info("sample requested",
		logging.String(logging.FieldUID, s.uid),
		logging.String("sample_uid", created.UID),
	)
	return SampleHandle{SynthesizerUID: s.uid, UID: created.UID}, nil
}

// AwaitSample polls the synthesizer history until the sample finishes, then downloads
// the generated CSV. A failed sample returns a *SamplingError and nothing is downloaded.
// An attempt not yet listed in the history counts as pending.
func (s *Synthesizer) AwaitSample(ctx context.Context, handle SampleHandle, interval time.Duration) ([]byte, error) {
	synthUID := handle.SynthesizerUID
	if synthUID == "" {
		synthUID = s.uid
	}
	if synthUID == "" {
		return nil, ErrNotInitialized
	}
	if handle.UID == "" {
		return nil, fmt.Errorf("%w: sample uid is required", ErrInvalidInput)
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	err := poll.Until(ctx, interval, s.client.sleep, func(ctx context.Context, _ int) (bool, error) {
		var history []historyEntry
		if err := s.client.transport.Get(ctx, "/synthesizer/"+synthUID+"/history", &history); err != nil {
			return false, err
		}
		state := ""
		for _, entry := range history {
			if entry.UID == handle.UID {
				state = strings.ToLower(strings.TrimSpace(entry.Status.State))
				break
			}
		}
		switch state {
		case "finished":
			return true, nil
		case "failed":
			return false, &SamplingError{SynthesizerUID: synthUID, SampleUID: handle.UID}
		}
		s.client.logger.Info("Sampling from the synthesizer...",
			logging.String(logging.FieldUID, synthUID),
			logging.String("sample_uid", handle.UID),
			logging.String(logging.FieldState, state),
		)
		return false, nil
	})
	if err != nil {
		var sampleErr *SamplingError
		if errors.As(err, &sampleErr) {
			return nil, err
		}
		return nil, fmt.Errorf("synthesizer: await sample %s: %w", handle.UID, err)
	}

	path := fmt.Sprintf("/synthesizer/%s/sample/%s/sample.csv", synthUID, handle.UID)
	data, err := s.client.transport.GetStatic(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: download sample %s: %w", handle.UID, err)
	}
	return data, nil
}

// Sample requests a sample and waits for its CSV bytes.
func (s *Synthesizer) Sample(ctx context.Context, params SampleParams, interval time.Duration) ([]byte, error) {
	handle, err := s.RequestSample(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.AwaitSample(ctx, handle, interval)
}
