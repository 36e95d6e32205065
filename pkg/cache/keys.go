package cache

import "time"

// Keyer derives cache keys.
type Keyer interface {
	// SimplifyKey identifies a simplification result.
	SimplifyKey(graphHash, rulesHash string, opts SimplifyKeyOpts) string
}

// SimplifyKeyOpts holds the run options that change a result.
type SimplifyKeyOpts struct {
	Iterations      int           `json:"iterations"`
	MaxPermutations int           `json:"max_permutations"`
	Timeout         time.Duration `json:"timeout"`
	Trace           bool          `json:"trace"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SimplifyKey returns "simplify:<sha256>" over the hashes and options.
func (DefaultKeyer) SimplifyKey(graphHash, rulesHash string, opts SimplifyKeyOpts) string {
	return hashKey("simplify", graphHash, rulesHash, opts)
}
