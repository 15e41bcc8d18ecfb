package synthesizer

import "strings"

// State is the overall state of a synthesizer job.
type State string

const (
	StateNotInitialized State = "NOT_INITIALIZED"
	StateUnknown        State = "UNKNOWN"
	StatePrepare        State = "PREPARE"
	StateTrain          State = "TRAIN"
	StateReport         State = "REPORT"
	StateReady          State = "READY"
	StateFailed         State = "FAILED"
)

// ParseState maps a service state onto a State, ignoring case. Anything
// unrecognised is StateUnknown.
func ParseState(raw string) State {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PREPARE", "PREPARING":
		return StatePrepare
	case "TRAIN", "TRAINING":
		return StateTrain
	case "REPORT":
		return StateReport
	case "READY":
		return StateReady
	case "FAILED":
		return StateFailed
	case "NOT_INITIALIZED", "NOT INITIALIZED":
		return StateNotInitialized
	default:
		return StateUnknown
	}
}

// Succeeded reports READY or REPORT. A job in REPORT can already be sampled.
func (s State) Succeeded() bool {
	return s == StateReady || s == StateReport
}

// Terminal reports whether no further transition will happen.
func (s State) Terminal() bool {
	return s.Succeeded() || s == StateFailed
}

// Phase is the state of one stage of a job (preparation, training, report).
type Phase struct {
	State string `json:"state,omitempty"`
}

// Failed reports a failed phase.
func (p Phase) Failed() bool {
	return strings.EqualFold(strings.TrimSpace(p.State), "failed")
}

// Status is a resolved job status.
type Status struct {
	State    State `json:"state"`
	Prepare  Phase `json:"prepare"`
	Training Phase `json:"training"`
	Report   Phase `json:"report"`
}

func (s Status) String() string {
	parts := []string{string(s.State)}
	if s.Prepare.State != "" {
		parts = append(parts, "prepare="+s.Prepare.State)
	}
	if s.Training.State != "" {
		parts = append(parts, "training="+s.Training.State)
	}
	if s.Report.State != "" {
		parts = append(parts, "report="+s.Report.State)
	}
	return strings.Join(parts, " ")
}

// apiStatus is the status object returned by GET /synthesizer/{uid}.
type apiStatus struct {
	State    string `json:"state"`
	Prepare  *Phase `json:"prepare"`
	Training *Phase `json:"training"`
	Report   *Phase `json:"report"`
}

// resolveStatus lifts a failed preparation or training phase to an overall FAILED.
func resolveStatus(api apiStatus) Status {
	status := Status{State: ParseState(api.State)}
	if api.Prepare != nil {
		status.Prepare = *api.Prepare
	}
	if api.Training != nil {
		status.Training = *api.Training
	}
	if api.Report != nil {
		status.Report = *api.Report
	}
	if status.Prepare.Failed() || status.Training.Failed() {
		status.State = StateFailed
	}
	return status
}
