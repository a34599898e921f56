package domain

// Strategy selects how a question is processed.
type Strategy string

// Available processing strategies.
const (
	// StrategySingleHop is the baseline retrieve-then-generate path.
	StrategySingleHop Strategy = "single_hop"

	// StrategySelfConsistency samples several independent reasoning traces
	// and reconciles them by consensus.
	StrategySelfConsistency Strategy = "self_consistency"

	// StrategyMultiHop decomposes the question into sequential sub-queries
	// with context carried between hops.
	StrategyMultiHop Strategy = "multi_hop"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategySingleHop, StrategySelfConsistency, StrategyMultiHop:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// Complexity classifies a question before strategy selection.
type Complexity string

// Question complexity classes.
const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// DefaultStrategy maps a complexity class to its processing strategy.
func (c Complexity) DefaultStrategy() Strategy {
	switch c {
	case ComplexityMedium:
		return StrategySelfConsistency
	case ComplexityComplex:
		return StrategyMultiHop
	default:
		return StrategySingleHop
	}
}

// HopType identifies what a hop does with its retrieval results.
type HopType string

// Available hop types.
const (
	// HopDirect answers the sub-question from its own retrieval only.
	HopDirect HopType = "direct"

	// HopRetrieve gathers information for later hops.
	HopRetrieve HopType = "retrieve"

	// HopFilter narrows a prior hop's results by a condition.
	HopFilter HopType = "filter"

	// HopExtract pulls specific attributes out of a prior hop's results.
	HopExtract HopType = "extract"

	// HopCompare contrasts the outputs of two prior hops.
	HopCompare HopType = "compare"
)

// IsValid returns true if the hop type is recognised.
func (t HopType) IsValid() bool {
	switch t {
	case HopDirect, HopRetrieve, HopFilter, HopExtract, HopCompare:
		return true
	default:
		return false
	}
}

// RequiresDependencies reports whether this hop type is meaningless
// without the outputs of earlier hops.
func (t HopType) RequiresDependencies() bool {
	return t == HopFilter || t == HopExtract || t == HopCompare
}

// HopSpec defines one step of a multi-hop plan.
type HopSpec struct {
	// SubQuestion is the question this hop answers.
	SubQuestion string

	// Type is the hop type.
	Type HopType

	// DependsOn lists indices of earlier hops whose outputs feed this hop.
	// Indices must all be strictly less than this hop's own index.
	DependsOn []int
}

// ExecutionPlan is the planner's output: a strategy plus, for multi-hop,
// an ordered hop decomposition. It is transient, consumed once per
// request, and never persisted.
type ExecutionPlan struct {
	// Strategy is the selected processing path.
	Strategy Strategy

	// Complexity is the computed complexity class, kept for trace metadata.
	Complexity Complexity

	// Hops is the ordered decomposition. Empty unless Strategy is multi_hop.
	Hops []HopSpec

	// MaxHops is the hop ceiling in effect when the plan was produced.
	MaxHops int

	// SampleCount is the self-consistency sample count in effect.
	SampleCount int

	// Forced reports that the caller overrode the computed strategy.
	Forced bool
}

// Validate checks the structural invariants of a plan: hop dependency
// indices must reference strictly earlier hops, so the dependency graph
// is acyclic by construction.
func (p ExecutionPlan) Validate() error {
	if !p.Strategy.IsValid() {
		return ErrValidation
	}
	for i, hop := range p.Hops {
		if !hop.Type.IsValid() {
			return ErrValidation
		}
		for _, dep := range hop.DependsOn {
			if dep < 0 || dep >= i {
				return ErrPlanning
			}
		}
	}
	return nil
}
