package entities

import "time"

// EvidenceKind categorizes a corroborating record.
type EvidenceKind string

const (
	EvidenceDocument EvidenceKind = "document"
	EvidenceDNA      EvidenceKind = "dna"
	EvidencePhoto    EvidenceKind = "photo"
	EvidenceOther    EvidenceKind = "other"
)

// IsValid reports whether k is a known evidence kind.
func (k EvidenceKind) IsValid() bool {
	switch k {
	case EvidenceDocument, EvidenceDNA, EvidencePhoto, EvidenceOther:
		return true
	}
	return false
}

// EvidenceRecord links two people through an external source such as a
// birth certificate or a DNA match. The pair is unordered.
type EvidenceRecord struct {
	ID          string       `json:"id"`
	PersonA     string       `json:"personA"`
	PersonB     string       `json:"personB"`
	Kind        EvidenceKind `json:"kind"`
	Strength    float64      `json:"strength"` // 0..1
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// HouseholdMembership places a person in a historical household record.
type HouseholdMembership struct {
	HouseholdID string `json:"householdId"`
	PersonID    string `json:"personId"`
}

// Residence records a place a person lived.
type Residence struct {
	PersonID string `json:"personId"`
	Location string `json:"location"`
}
