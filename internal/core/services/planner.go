package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Complexity signal weights. Comparison markers weigh double because a
// comparison always needs at least two retrievals plus a join.
const (
	weightAggregation = 1
	weightComparison  = 2
	weightConjunction = 1
	weightTemporal    = 1
	weightExtraMark   = 2
	weightEnumeration = 1
)

var (
	aggregationMarkers = []string{
		"which", "how many", "what are the", "find all", "list all",
		"when did", "where are", "analyze",
	}

	comparisonMarkers = []string{"compare", "versus", " vs ", " vs. ", "difference between"}

	filterKeywords = []string{
		"only", "lack", "without", "exclude", "expire", "expired",
		"missing", "at least", "more than", "less than",
	}

	extractionKeywords = []string{"extract", "name of", "value of", "date of", "email of"}

	conjunctionRe = regexp.MustCompile(`\b(and|or|but|however|additionally)\b`)
	temporalRe    = regexp.MustCompile(`\b(next|last|past|within)\s+\d+\s+(day|days|week|weeks|month|months|year|years)\b|\b(before|after|since)\s+\d{4}\b`)
	enumerationRe = regexp.MustCompile(`\b\d+\.\s|\([a-z]\)|\b(first|second|third)(ly)?\b`)

	whichPattern   = regexp.MustCompile(`which\s+(\w+)\s+(?:do|does|are|have|has)\s+(.+?)\s+and\s+(.+)`)
	whatArePattern = regexp.MustCompile(`what\s+are\s+the\s+(.+?)\s+and\s+(.+?)\s+of\s+(.+)`)
	comparePattern = regexp.MustCompile(`compare\s+(.+?)\s+(?:and|versus|vs\.?|with)\s+(.+)`)
)

// Planner classifies question complexity and produces execution plans.
// It is stateless; all knobs come from the immutable settings passed at
// construction. Planning has no side effects beyond logging.
type Planner struct {
	settings domain.PlannerSettings
	defaults domain.ConsistencySettings
}

// NewPlanner creates a query planner.
func NewPlanner(planner domain.PlannerSettings, consistency domain.ConsistencySettings) *Planner {
	return &Planner{settings: planner, defaults: consistency}
}

// Plan validates the request, classifies the question and selects a
// strategy. The same question and configuration always yield the same
// plan. A caller-forced strategy wins over the computed one.
func (p *Planner) Plan(question, tenantID string, opts domain.QueryOptions) (domain.ExecutionPlan, error) {
	question = strings.TrimSpace(question)
	if err := p.validate(question, tenantID); err != nil {
		return domain.ExecutionPlan{}, err
	}

	maxHops := p.settings.MaxHops
	if opts.MaxHops > 0 {
		maxHops = opts.MaxHops
	}
	samples := p.resolveSamples(opts)

	complexity := p.classify(question)
	strategy := complexity.DefaultStrategy()

	forced := false
	if opts.ForceStrategy != "" {
		if !opts.ForceStrategy.IsValid() {
			return domain.ExecutionPlan{}, fmt.Errorf("%w: unknown strategy %q", domain.ErrValidation, opts.ForceStrategy)
		}
		strategy = opts.ForceStrategy
		forced = true
		logger.Debug("Planner: strategy forced to %s", strategy)
	}

	plan := domain.ExecutionPlan{
		Strategy:    strategy,
		Complexity:  complexity,
		MaxHops:     maxHops,
		SampleCount: samples,
		Forced:      forced,
	}

	if strategy == domain.StrategyMultiHop {
		hops, err := p.decompose(question, maxHops)
		if err != nil {
			// Zero valid hops: fall back to single-hop rather than failing.
			logger.Warn("Planner: decomposition failed (%v), falling back to single_hop", err)
			plan.Strategy = domain.StrategySingleHop
			plan.Hops = nil
			return plan, nil
		}
		plan.Hops = hops
	}

	logger.Info("Planner: complexity=%s strategy=%s hops=%d", complexity, plan.Strategy, len(plan.Hops))
	return plan, nil
}

// validate checks the request inputs. Failures are never retried.
func (p *Planner) validate(question, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", domain.ErrValidation)
	}
	if question == "" {
		return fmt.Errorf("%w: question is empty", domain.ErrValidation)
	}
	if limit := p.settings.MaxQuestionLength; limit > 0 && len([]rune(question)) > limit {
		return fmt.Errorf("%w: question exceeds %d characters", domain.ErrValidation, limit)
	}
	if strings.ContainsRune(question, '\x00') {
		return fmt.Errorf("%w: question contains disallowed content", domain.ErrValidation)
	}
	return nil
}

func (p *Planner) resolveSamples(opts domain.QueryOptions) int {
	samples := p.defaults.Samples
	if opts.SampleCount > 0 {
		samples = opts.SampleCount
	}
	if samples < 1 {
		samples = 1
	}
	if ceiling := p.defaults.MaxSamples; ceiling > 0 && samples > ceiling {
		logger.Warn("Planner: sample count %d exceeds cap %d, clamping", samples, ceiling)
		samples = ceiling
	}
	return samples
}

// classify combines lexical and structural signals into a weighted score
// and maps it onto a complexity class via the configured thresholds.
func (p *Planner) classify(question string) domain.Complexity {
	lower := strings.ToLower(question)

	score := 0
	for _, marker := range aggregationMarkers {
		if strings.Contains(lower, marker) {
			score += weightAggregation
		}
	}
	for _, marker := range comparisonMarkers {
		if strings.Contains(lower, marker) {
			score += weightComparison
		}
	}
	score += weightConjunction * len(conjunctionRe.FindAllString(lower, -1))
	if temporalRe.MatchString(lower) {
		score += weightTemporal
	}
	if enumerationRe.MatchString(lower) {
		score += weightEnumeration
	}
	if marks := strings.Count(question, "?"); marks > 1 {
		score += weightExtraMark * (marks - 1)
	}

	logger.Debug("Planner: complexity score=%d for %q", score, question)

	switch {
	case score >= p.settings.ComplexThreshold:
		return domain.ComplexityComplex
	case score >= p.settings.MediumThreshold:
		return domain.ComplexityMedium
	default:
		return domain.ComplexitySimple
	}
}

// decompose splits a complex question into an ordered hop sequence.
// Comparison and known aggregate shapes are matched first; anything else
// splits on top-level conjunctions. Returns ErrPlanning when no valid
// hop can be produced.
func (p *Planner) decompose(question string, maxHops int) ([]domain.HopSpec, error) {
	lower := strings.ToLower(question)

	var hops []domain.HopSpec
	switch {
	case comparePattern.MatchString(lower):
		hops = decomposeCompare(lower)
	case whichPattern.MatchString(lower):
		hops = decomposeWhich(lower)
	case whatArePattern.MatchString(lower):
		hops = decomposeWhatAre(lower)
	default:
		hops = decomposeConjunctions(lower)
	}

	if len(hops) == 0 {
		return nil, fmt.Errorf("%w: no valid hops for %q", domain.ErrPlanning, question)
	}

	if len(hops) > maxHops {
		logger.Warn("Planner: decomposition produced %d hops, truncating to %d", len(hops), maxHops)
		hops = truncateHops(hops, maxHops)
	}

	plan := domain.ExecutionPlan{Strategy: domain.StrategyMultiHop, Hops: hops}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid hop graph", domain.ErrPlanning)
	}
	return hops, nil
}

// decomposeCompare produces two retrieve hops plus a compare hop that
// depends on both.
func decomposeCompare(lower string) []domain.HopSpec {
	m := comparePattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	first, second := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if first == "" || second == "" {
		return nil
	}
	return []domain.HopSpec{
		{SubQuestion: "Find information about " + first, Type: domain.HopRetrieve},
		{SubQuestion: "Find information about " + second, Type: domain.HopRetrieve},
		{
			SubQuestion: fmt.Sprintf("Compare the information about %s and %s", first, second),
			Type:        domain.HopCompare,
			DependsOn:   []int{0, 1},
		},
	}
}

// decomposeWhich produces a retrieve hop and a dependent filter hop for
// questions shaped "which X ... A and B".
func decomposeWhich(lower string) []domain.HopSpec {
	m := whichPattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	entity, first, second := m[1], strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	return []domain.HopSpec{
		{SubQuestion: fmt.Sprintf("Find all %s that %s", entity, first), Type: domain.HopFilter},
		{
			SubQuestion: fmt.Sprintf("Check which of these %s also %s", entity, second),
			Type:        domain.HopFilter,
			DependsOn:   []int{0},
		},
	}
}

// decomposeWhatAre produces a retrieve hop and a dependent extract hop
// for questions shaped "what are the X and Y of Z".
func decomposeWhatAre(lower string) []domain.HopSpec {
	m := whatArePattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	attr1, attr2, entity := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	return []domain.HopSpec{
		{SubQuestion: "Find information about " + entity, Type: domain.HopRetrieve},
		{
			SubQuestion: fmt.Sprintf("Extract %s and %s from the information", attr1, attr2),
			Type:        domain.HopExtract,
			DependsOn:   []int{0},
		},
	}
}

// decomposeConjunctions splits on top-level conjunctions; each fragment
// becomes a retrieve hop unless it carries a filter or extraction keyword.
func decomposeConjunctions(lower string) []domain.HopSpec {
	fragments := conjunctionRe.Split(lower, -1)

	var hops []domain.HopSpec
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(strings.Trim(fragment, "?.,;"))
		if len(strings.Fields(fragment)) < 2 {
			continue
		}
		hop := domain.HopSpec{SubQuestion: fragment, Type: domain.HopRetrieve}
		if containsAny(fragment, filterKeywords) {
			hop.Type = domain.HopFilter
			if len(hops) > 0 {
				hop.DependsOn = []int{len(hops) - 1}
			}
		} else if containsAny(fragment, extractionKeywords) {
			hop.Type = domain.HopExtract
			if len(hops) > 0 {
				hop.DependsOn = []int{len(hops) - 1}
			}
		}
		hops = append(hops, hop)
	}
	return hops
}

// truncateHops drops trailing hops past the ceiling and any dependency
// edges that point beyond it.
func truncateHops(hops []domain.HopSpec, maxHops int) []domain.HopSpec {
	truncated := hops[:maxHops]
	for i := range truncated {
		var deps []int
		for _, dep := range truncated[i].DependsOn {
			if dep < maxHops {
				deps = append(deps, dep)
			}
		}
		truncated[i].DependsOn = deps
	}
	return truncated
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
