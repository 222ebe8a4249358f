// Package scoring proposes likely missing parent-child links. Each
// candidate pair is scored independently from name, age, co-residence and
// evidence signals, so a pass fans out across workers and is merged with a
// deterministic sort.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/graph"
)

var tracer = otel.Tracer("kin.scoring")

var (
	// ErrSuggestionRejected is returned when a pair is in the rejection set.
	ErrSuggestionRejected = errors.New("suggestion was rejected")

	// ErrNotSuggestable is returned when a pair cannot be a candidate: a
	// birth year is unknown, the gap is outside the band, the pair is
	// already linked or a biological edge between them would be invalid.
	ErrNotSuggestable = errors.New("pair is not a suggestable candidate")
)

// Weights sets the relative importance of each signal.
type Weights struct {
	Name      float64
	Age       float64
	Household float64
	Evidence  float64
}

// Config tunes candidate generation and scoring.
type Config struct {
	MinGap          float64
	MaxGap          float64
	IdealGap        float64
	Weights         Weights
	AmbiguityMargin float64
	Workers         int // 0 uses GOMAXPROCS
}

// DefaultConfig returns the default band, weights and margin.
func DefaultConfig() Config {
	return Config{
		MinGap:   10,
		MaxGap:   70,
		IdealGap: 28,
		Weights: Weights{
			Name:      0.30,
			Age:       0.30,
			Household: 0.25,
			Evidence:  0.15,
		},
		AmbiguityMargin: 5,
	}
}

// Validate checks that the band and weights are usable.
func (c Config) Validate() error {
	if c.MinGap < 0 || c.MinGap >= c.MaxGap {
		return fmt.Errorf("gap band %.1f-%.1f is empty", c.MinGap, c.MaxGap)
	}
	if c.IdealGap <= c.MinGap || c.IdealGap >= c.MaxGap {
		return fmt.Errorf("ideal gap %.1f must lie strictly inside %.1f-%.1f", c.IdealGap, c.MinGap, c.MaxGap)
	}
	w := c.Weights
	if w.Name < 0 || w.Age < 0 || w.Household < 0 || w.Evidence < 0 {
		return errors.New("weights must not be negative")
	}
	if w.Name+w.Age+w.Household+w.Evidence == 0 {
		return errors.New("at least one weight must be positive")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

// Evidence weights by kind before strength scaling.
var evidenceWeights = map[entities.EvidenceKind]float64{
	entities.EvidenceDNA:      60,
	entities.EvidenceDocument: 40,
	entities.EvidencePhoto:    20,
	entities.EvidenceOther:    10,
}

// Input is everything a scoring pass reads. All fields are treated as
// read-only.
type Input struct {
	People     []entities.Person
	Graph      *graph.Snapshot
	Evidence   []entities.EvidenceRecord
	Households []entities.HouseholdMembership
	Residences []entities.Residence
	Rejected   map[entities.PairID]bool
}

// Scorer produces ranked parent-child suggestions.
type Scorer struct {
	mu        sync.RWMutex
	cfg       Config
	validator *graph.Validator
}

// New creates a scorer. validator is used to drop pairs that could never
// be committed as biological edges.
func New(cfg Config, validator *graph.Validator) *Scorer {
	if validator == nil {
		validator = graph.NewValidator(graph.DefaultValidatorConfig())
	}
	return &Scorer{cfg: cfg, validator: validator}
}

// Config returns the current configuration.
func (s *Scorer) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig replaces the configuration for subsequent passes.
func (s *Scorer) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid scorer config: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

type pair struct {
	parent, child entities.Person
}

// Score runs a full pass and returns every candidate with a positive
// confidence, ordered by confidence descending, then parent id, then
// child id.
func (s *Scorer) Score(ctx context.Context, in Input) ([]entities.SuggestionCandidate, error) {
	cfg := s.Config()
	ctx, span := tracer.Start(ctx, "Scorer.Score",
		trace.WithAttributes(attribute.Int("people", len(in.People))),
	)
	defer span.End()

	idx := newIndex(in)
	pairs := candidatePairs(in.People, cfg)
	span.SetAttributes(attribute.Int("pairs", len(pairs)))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	const batch = 256

	slots := make([]*entities.SuggestionCandidate, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(pairs); start += batch {
		end := min(start+batch, len(pairs))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				p := pairs[i]
				if s.excluded(in, p.parent.ID, p.child.ID) != nil {
					continue
				}
				c := scorePair(cfg, idx, p.parent, p.child)
				if c.Confidence > 0 {
					slots[i] = &c
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]entities.SuggestionCandidate, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	sortCandidates(out)
	markAmbiguous(out, cfg.AmbiguityMargin)

	span.SetAttributes(attribute.Int("candidates", len(out)))
	return out, nil
}

// ScorePair scores a single ordered pair after checking it is eligible.
func (s *Scorer) ScorePair(in Input, parentID, childID string) (entities.SuggestionCandidate, error) {
	cfg := s.Config()
	var parent, child *entities.Person
	for i := range in.People {
		switch in.People[i].ID {
		case parentID:
			parent = &in.People[i]
		case childID:
			child = &in.People[i]
		}
	}
	if parent == nil || child == nil {
		return entities.SuggestionCandidate{}, fmt.Errorf("scoring %s -> %s: %w", parentID, childID, graph.ErrPersonNotFound)
	}
	if err := s.excluded(in, parentID, childID); err != nil {
		return entities.SuggestionCandidate{}, err
	}
	py, pok := parent.BirthYear()
	cy, cok := child.BirthYear()
	if !pok || !cok {
		return entities.SuggestionCandidate{}, fmt.Errorf("%w: birth year unknown", ErrNotSuggestable)
	}
	if gap := float64(cy - py); gap < cfg.MinGap || gap > cfg.MaxGap {
		return entities.SuggestionCandidate{}, fmt.Errorf("%w: birth-year gap %.0f outside %.0f-%.0f", ErrNotSuggestable, gap, cfg.MinGap, cfg.MaxGap)
	}
	return scorePair(cfg, newIndex(in), *parent, *child), nil
}

// excluded reports why a pair must not be suggested, or nil.
func (s *Scorer) excluded(in Input, parentID, childID string) error {
	if in.Rejected[entities.PairID{Parent: parentID, Child: childID}] {
		return ErrSuggestionRejected
	}
	if in.Graph == nil {
		return nil
	}
	if in.Graph.Linked(parentID, childID) {
		return fmt.Errorf("%w: already linked", ErrNotSuggestable)
	}
	res := s.validator.ValidateParentChild(in.Graph, entities.ParentChildEdge{
		Parent:           parentID,
		Child:            childID,
		RelationshipType: entities.RelationBiological,
	})
	if !res.OK() {
		return fmt.Errorf("%w: %s", ErrNotSuggestable, res.Err())
	}
	return nil
}

// candidatePairs returns (older, younger) pairs whose birth-year gap lies
// within the band, using a window over people sorted by birth year.
func candidatePairs(people []entities.Person, cfg Config) []pair {
	dated := make([]entities.Person, 0, len(people))
	for _, p := range people {
		if p.BirthDate != nil {
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		yi, _ := dated[i].BirthYear()
		yj, _ := dated[j].BirthYear()
		if yi != yj {
			return yi < yj
		}
		return dated[i].ID < dated[j].ID
	})

	var pairs []pair
	lo := 0
	for i := range dated {
		py, _ := dated[i].BirthYear()
		if lo < i+1 {
			lo = i + 1
		}
		for lo < len(dated) {
			cy, _ := dated[lo].BirthYear()
			if float64(cy-py) >= cfg.MinGap {
				break
			}
			lo++
		}
		for j := lo; j < len(dated); j++ {
			cy, _ := dated[j].BirthYear()
			if float64(cy-py) > cfg.MaxGap {
				break
			}
			pairs = append(pairs, pair{parent: dated[i], child: dated[j]})
		}
	}
	return pairs
}

// index holds lookups built once per pass and shared read-only by workers.
type index struct {
	evidence   map[entities.PersonPair][]entities.EvidenceRecord
	households map[string]map[string]bool
	locations  map[string]map[string]bool
}

func newIndex(in Input) *index {
	idx := &index{
		evidence:   make(map[entities.PersonPair][]entities.EvidenceRecord),
		households: make(map[string]map[string]bool),
		locations:  make(map[string]map[string]bool),
	}
	for _, e := range in.Evidence {
		if e.PersonA == e.PersonB {
			continue
		}
		key := entities.PairKey(e.PersonA, e.PersonB)
		idx.evidence[key] = append(idx.evidence[key], e)
	}
	for _, h := range in.Households {
		addToSet(idx.households, h.PersonID, h.HouseholdID)
	}
	for _, r := range in.Residences {
		if loc := entities.NormalizeName(r.Location); loc != "" {
			addToSet(idx.locations, r.PersonID, loc)
		}
	}
	return idx
}

func addToSet(m map[string]map[string]bool, key, value string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]bool)
		m[key] = set
	}
	set[value] = true
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

type contribution struct {
	label string
	value float64
}

func scorePair(cfg Config, idx *index, parent, child entities.Person) entities.SuggestionCandidate {
	gap := entities.YearsBetween(*parent.BirthDate, *child.BirthDate)
	evidence := idx.evidence[entities.PairKey(parent.ID, child.ID)]

	sig := entities.SignalScores{
		Name:      nameSignal(parent.FamilyName(), child.FamilyName()),
		AgeGap:    ageSignal(cfg, gap),
		Household: householdSignal(idx, parent.ID, child.ID),
		Evidence:  evidenceSignal(evidence),
	}

	w := cfg.Weights
	total := w.Name + w.Age + w.Household + w.Evidence
	contribs := []contribution{
		{fmt.Sprintf("surname similarity %.0f", sig.Name), w.Name * sig.Name / total},
		{fmt.Sprintf("age gap %.0f years", gap), w.Age * sig.AgeGap / total},
		{householdLabel(sig.Household), w.Household * sig.Household / total},
		{fmt.Sprintf("%d evidence record(s)", len(evidence)), w.Evidence * sig.Evidence / total},
	}

	confidence := 0.0
	for _, c := range contribs {
		confidence += c.value
	}
	confidence = math.Round(clamp(confidence, 0, 100)*10) / 10

	return entities.SuggestionCandidate{
		CandidateParent: parent.ID,
		CandidateChild:  child.ID,
		Confidence:      confidence,
		Reasoning:       reasoning(contribs),
		EvidenceCount:   len(evidence),
		Signals:         sig,
	}
}

func nameSignal(a, b string) float64 {
	a, b = entities.NormalizeName(a), entities.NormalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	sim := jaroWinkler(a, b)
	if sim < 0.8 {
		return 0
	}
	return (sim - 0.8) / 0.2 * 100
}

// ageSignal peaks at the ideal gap and falls linearly to zero at the
// band edges.
func ageSignal(cfg Config, gap float64) float64 {
	switch {
	case gap <= cfg.MinGap || gap >= cfg.MaxGap:
		return 0
	case gap <= cfg.IdealGap:
		return (gap - cfg.MinGap) / (cfg.IdealGap - cfg.MinGap) * 100
	default:
		return (cfg.MaxGap - gap) / (cfg.MaxGap - cfg.IdealGap) * 100
	}
}

func householdSignal(idx *index, a, b string) float64 {
	if intersects(idx.households[a], idx.households[b]) {
		return 100
	}
	if intersects(idx.locations[a], idx.locations[b]) {
		return 50
	}
	return 0
}

func householdLabel(score float64) string {
	switch score {
	case 100:
		return "shared household"
	case 50:
		return "shared location"
	}
	return "co-residence"
}

func evidenceSignal(records []entities.EvidenceRecord) float64 {
	total := 0.0
	for _, r := range records {
		total += evidenceWeights[r.Kind] * clamp(r.Strength, 0, 1)
	}
	return math.Min(total, 100)
}

// reasoning lists contributing signals, largest contribution first.
func reasoning(contribs []contribution) string {
	sorted := make([]contribution, 0, len(contribs))
	for _, c := range contribs {
		if c.value > 0 {
			sorted = append(sorted, c)
		}
	}
	if len(sorted) == 0 {
		return "no supporting signals"
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].value > sorted[j].value })
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = fmt.Sprintf("%s (+%.1f)", c.label, c.value)
	}
	return strings.Join(parts, ", ")
}

func sortCandidates(cs []entities.SuggestionCandidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.CandidateParent != b.CandidateParent {
			return a.CandidateParent < b.CandidateParent
		}
		return a.CandidateChild < b.CandidateChild
	})
}

// markAmbiguous flags a child's top candidates when more than one lies
// within margin of the best. cs must already be sorted.
func markAmbiguous(cs []entities.SuggestionCandidate, margin float64) {
	best := make(map[string]float64)
	count := make(map[string]int)
	for _, c := range cs {
		top, seen := best[c.CandidateChild]
		if !seen {
			best[c.CandidateChild] = c.Confidence
			top = c.Confidence
		}
		if top-c.Confidence <= margin {
			count[c.CandidateChild]++
		}
	}
	for i := range cs {
		c := &cs[i]
		if count[c.CandidateChild] > 1 && best[c.CandidateChild]-c.Confidence <= margin {
			c.Ambiguous = true
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
