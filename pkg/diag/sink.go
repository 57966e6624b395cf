package diag

import (
	"sync"

	"github.com/go-logr/logr"
)

// Sink is a per-operation diagnostic queue. One is created for each Emit
// call; it is never shared process-wide, so two concurrent emissions never
// contend over the same mutex or threshold state.
type Sink struct {
	mu            sync.Mutex
	log           logr.Logger
	threshold     Severity
	messages      []*Code
	abortTriggers int
}

// NewSink creates a Sink that logs every reported diagnostic through log and
// additionally counts how many diagnostics met or exceeded threshold, the
// caller-configured abort severity from §6.
func NewSink(log logr.Logger, threshold Severity) *Sink {
	return &Sink{log: log, threshold: threshold}
}

// Report records a diagnostic, logs it, and reports whether its severity
// reached the configured abort threshold.
func (s *Sink) Report(code *Code) (shouldAbort bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, code)
	if code.Severity >= SeverityFailure {
		s.log.Error(code, code.Message, "kind", code.Kind, "priority", code.Priority)
	} else {
		s.log.V(1).Info(code.Message, "kind", code.Kind, "severity", code.Severity, "priority", code.Priority)
	}

	if code.Severity >= s.threshold {
		s.abortTriggers++
		return true
	}
	return false
}

// Messages returns every diagnostic reported so far, in report order.
func (s *Sink) Messages() []*Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Code, len(s.messages))
	copy(out, s.messages)
	return out
}

// Aborted reports whether any reported diagnostic reached the threshold.
func (s *Sink) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abortTriggers > 0
}
