package graph

import (
	"sync"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// Default plausible parent age band, in years at the child's birth.
const (
	DefaultMinParentAgeYears = 12
	DefaultMaxParentAgeYears = 60
)

// ValidatorConfig holds the tunable thresholds of the validator.
type ValidatorConfig struct {
	MinParentAgeYears float64
	MaxParentAgeYears float64
}

// DefaultValidatorConfig returns the default 12 to 60 year band.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinParentAgeYears: DefaultMinParentAgeYears,
		MaxParentAgeYears: DefaultMaxParentAgeYears,
	}
}

// Validator decides whether a proposed edge is structurally legal and
// collects non-fatal warnings. It is safe for concurrent use; the
// configuration can be swapped while running.
type Validator struct {
	mu  sync.RWMutex
	cfg ValidatorConfig
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Config returns the current thresholds.
func (v *Validator) Config() ValidatorConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cfg
}

// SetConfig replaces the thresholds.
func (v *Validator) SetConfig(cfg ValidatorConfig) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg = cfg
}

func newResult(edgeID string) ValidationResult {
	return ValidationResult{
		EdgeID:   edgeID,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

// ValidateParentChild checks a proposed parent-child edge against t.
func (v *Validator) ValidateParentChild(t Topology, e entities.ParentChildEdge) ValidationResult {
	cfg := v.Config()
	res := newResult(e.ID)

	if !e.RelationshipType.IsValid() {
		res.fail(ErrInvalidEdge, "unknown relationship type %q", e.RelationshipType)
	}
	if e.Confidence < 0 || e.Confidence > 100 {
		res.fail(ErrInvalidEdge, "confidence %d outside 0..100", e.Confidence)
	}
	if e.ID != "" && t.HasEdge(e.ID) {
		res.fail(ErrInvalidEdge, "edge id %s already in use", e.ID)
	}
	if e.Parent == e.Child {
		res.fail(ErrSelfRelationship, "%s cannot be their own parent", e.Parent)
		return res
	}

	parent, parentOK := t.Person(e.Parent)
	if !parentOK {
		res.fail(ErrPersonNotFound, "parent %s", e.Parent)
	}
	child, childOK := t.Person(e.Child)
	if !childOK {
		res.fail(ErrPersonNotFound, "child %s", e.Child)
	}

	biological := 0
	for _, existing := range t.ParentEdges(e.Child) {
		if existing.Parent == e.Parent && existing.RelationshipType == e.RelationshipType {
			res.fail(ErrDuplicateRelationship, "%s is already a %s parent of %s", e.Parent, e.RelationshipType, e.Child)
		}
		if existing.IsBiological() {
			biological++
		}
	}
	if e.IsBiological() && biological >= 2 {
		res.fail(ErrTooManyBiologicalParents, "%s already has %d biological parents", e.Child, biological)
	}

	if reachesAncestor(t, e.Parent, e.Child) {
		res.fail(ErrCycleDetected, "%s is an ancestor of %s", e.Child, e.Parent)
	}

	if parentOK && childOK {
		checkDates(&res, cfg, parent, child, e.IsBiological())
	}
	return res
}

func checkDates(res *ValidationResult, cfg ValidatorConfig, parent, child entities.Person, biological bool) {
	if parent.BirthDate != nil && child.BirthDate != nil {
		gap := entities.YearsBetween(*parent.BirthDate, *child.BirthDate)
		if gap < cfg.MinParentAgeYears || gap > cfg.MaxParentAgeYears {
			res.warn(WarnAgeGap, "parent age at birth %.1f years is outside %.0f-%.0f",
				gap, cfg.MinParentAgeYears, cfg.MaxParentAgeYears)
		}
	}
	if biological && parent.DeathDate != nil && child.BirthDate != nil {
		if entities.YearsBetween(*parent.DeathDate, *child.BirthDate) > 1 {
			res.warn(WarnParentDiedBeforeBirth, "%s died more than a year before %s was born", parent.ID, child.ID)
		}
	}
}

// ValidatePartnership checks a proposed partnership edge against t.
func (v *Validator) ValidatePartnership(t Topology, e entities.PartnershipEdge) ValidationResult {
	res := newResult(e.ID)

	if !e.Kind.IsValid() {
		res.fail(ErrInvalidEdge, "unknown partnership kind %q", e.Kind)
	}
	if !e.Status.IsValid() {
		res.fail(ErrInvalidEdge, "unknown partnership status %q", e.Status)
	}
	if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
		res.fail(ErrInvalidEdge, "end date is before start date")
	}
	if e.ID != "" && t.HasEdge(e.ID) {
		res.fail(ErrInvalidEdge, "edge id %s already in use", e.ID)
	}
	if e.PersonA == e.PersonB {
		res.fail(ErrSelfRelationship, "%s cannot partner with themselves", e.PersonA)
		return res
	}
	if _, ok := t.Person(e.PersonA); !ok {
		res.fail(ErrPersonNotFound, "person %s", e.PersonA)
	}
	if _, ok := t.Person(e.PersonB); !ok {
		res.fail(ErrPersonNotFound, "person %s", e.PersonB)
	}
	if !e.IsCurrent() {
		return res
	}

	pair := e.PairKey()
	for _, side := range []string{e.PersonA, e.PersonB} {
		for _, existing := range t.PartnershipsOf(side) {
			if !existing.IsCurrent() {
				continue
			}
			if existing.PairKey() == pair {
				if side == e.PersonA {
					res.fail(ErrDuplicateRelationship, "a current partnership already links %s and %s", e.PersonA, e.PersonB)
				}
				continue
			}
			res.warn(WarnConcurrentPartnership, "%s already has a current partnership with %s", side, existing.Other(side))
		}
	}
	return res
}
