package entities

import "time"

// SuggestionState tracks a candidate pair through review.
type SuggestionState string

const (
	SuggestionUnscored  SuggestionState = "unscored"
	SuggestionSuggested SuggestionState = "suggested"
	SuggestionAccepted  SuggestionState = "accepted"
	SuggestionRejected  SuggestionState = "rejected"
)

// SignalScores holds the normalized 0..100 value of each scoring signal.
type SignalScores struct {
	Name      float64 `json:"name"`
	AgeGap    float64 `json:"ageGap"`
	Household float64 `json:"household"`
	Evidence  float64 `json:"evidence"`
}

// SuggestionCandidate is a proposed parent-child link produced by a scoring pass.
type SuggestionCandidate struct {
	CandidateParent string       `json:"candidateParent"`
	CandidateChild  string       `json:"candidateChild"`
	Confidence      float64      `json:"confidence"`
	Reasoning       string       `json:"reasoning"`
	EvidenceCount   int          `json:"evidenceCount"`
	Ambiguous       bool         `json:"ambiguous,omitempty"`
	Signals         SignalScores `json:"signals"`
}

// SuggestionDecision records a reviewer's response to a candidate pair.
type SuggestionDecision struct {
	Parent    string          `json:"parent"`
	Child     string          `json:"child"`
	State     SuggestionState `json:"state"`
	EdgeID    string          `json:"edgeId,omitempty"`
	DecidedAt time.Time       `json:"decidedAt"`
}

// PairID identifies an ordered (parent, child) pair.
type PairID struct {
	Parent string
	Child  string
}
