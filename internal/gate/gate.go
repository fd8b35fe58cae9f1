// Package gate decides whether repository operations should run at all.
package gate

// Validator reports repository-level validity.
type Validator interface {
	Valid() bool
}

// Gate combines the configured enable flag with a per-call validity check.
type Gate struct {
	enabled bool
	repo    Validator
}

// New creates a Gate. A nil repo makes the gate inactive.
func New(enabled bool, repo Validator) Gate {
	return Gate{enabled: enabled, repo: repo}
}

// Active reports whether operations should proceed.
func (g Gate) Active() bool {
	return g.enabled && g.repo != nil && g.repo.Valid()
}

// Static is a fixed activity value, handy for tests.
type Static bool

func (s Static) Active() bool { return bool(s) }
