package vision

import "sync"

// MaxCallsPerSubmission caps vision spend for one submission extraction pass.
const MaxCallsPerSubmission = 3

// Outcome classifies a budget acquisition attempt.
type Outcome int

const (
	// Granted means a vision call may be issued; the budget was consumed.
	Granted Outcome = iota
	// Disabled means the configured model cannot accept image input.
	Disabled
	// Exhausted means the per-submission limit has been reached.
	Exhausted
)

// Budget is created once per submission extraction and shared by reference
// across every attachment, page, and image processed during that pass. It is
// never a process-wide singleton, so concurrent submissions stay isolated.
type Budget struct {
	mu      sync.Mutex
	enabled bool
	used    int
	max     int
	sources []string
}

// NewBudget returns a budget for one submission. enabled reflects whether the
// caller's configured platform and model support vision input at all.
func NewBudget(enabled bool) *Budget {
	return &Budget{enabled: enabled, max: MaxCallsPerSubmission}
}

// Enabled reports whether vision calls are possible for this submission.
func (b *Budget) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Acquire consumes one vision call for the given source label when possible.
// Labels are de-duplicated. used never exceeds max and never decreases.
func (b *Budget) Acquire(source string) Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled {
		return Disabled
	}
	if b.used >= b.max {
		return Exhausted
	}

	b.used++
	if !contains(b.sources, source) {
		b.sources = append(b.sources, source)
	}
	return Granted
}

// Used returns how many vision calls were consumed so far.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Sources returns the de-duplicated source labels in first-use order.
func (b *Budget) Sources() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sources))
	copy(out, b.sources)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
