package cascade

// DepthCap is the hard bound on traversal depth. Caller-supplied
// maxDepth may lower it, never raise it; the ownership graph is four
// levels deep, so hitting the cap means runaway data, not a deep tree.
const DepthCap = 10

// DeleteOptions tune one cascade delete call.
type DeleteOptions struct {
	// SkipValidation bypasses per-kind deletion rules entirely
	SkipValidation bool `json:"skipValidation"`

	// Force overrides soft validation failures. Hard findings
	// (structure, role invariants) still block.
	Force bool `json:"force"`

	// MaxDepth bounds recursion; zero means DepthCap
	MaxDepth int `json:"maxDepth"`
}

// RestoreOptions tune one cascade restore call. Restore has no force:
// every blocking finding there is structural.
type RestoreOptions struct {
	// SkipValidation bypasses per-kind restoration rules
	SkipValidation bool `json:"skipValidation"`

	// ValidateParents gates each node on its parent references being
	// live. On by default; disable only when restoring a subtree whose
	// owners are restored out of band.
	ValidateParents bool `json:"validateParents"`

	// MaxDepth bounds recursion; zero means DepthCap
	MaxDepth int `json:"maxDepth"`
}

// DefaultDeleteOptions returns the standard delete tuning.
func DefaultDeleteOptions() DeleteOptions {
	return DeleteOptions{MaxDepth: DepthCap}
}

// DefaultRestoreOptions returns the standard restore tuning.
func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{ValidateParents: true, MaxDepth: DepthCap}
}

func (o DeleteOptions) normalized() DeleteOptions {
	if o.MaxDepth <= 0 || o.MaxDepth > DepthCap {
		o.MaxDepth = DepthCap
	}
	return o
}

func (o RestoreOptions) normalized() RestoreOptions {
	if o.MaxDepth <= 0 || o.MaxDepth > DepthCap {
		o.MaxDepth = DepthCap
	}
	return o
}
