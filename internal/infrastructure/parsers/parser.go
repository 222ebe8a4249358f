// Package parsers reads and writes family records (people, edges and
// evidence) in JSON and CSV form.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// DateLayout is the calendar date format used by every import format.
const DateLayout = "2006-01-02"

// RawPerson is a person as read from an import file.
type RawPerson struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=128"`
	DisplayName string `json:"displayName" validate:"required,max=256"`
	Surname     string `json:"surname,omitempty" validate:"omitempty,max=128"`
	BirthDate   string `json:"birthDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DeathDate   string `json:"deathDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsDeceased  bool   `json:"isDeceased,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty" validate:"omitempty,url"`
	LineNum     int    `json:"-"`
}

// RawPartnership is a partnership edge as read from an import file.
// Kind and status default to "partnered" and "current".
type RawPartnership struct {
	ID        string `json:"id,omitempty" validate:"omitempty,max=128"`
	PersonA   string `json:"personA" validate:"required"`
	PersonB   string `json:"personB" validate:"required"`
	Kind      string `json:"kind,omitempty" validate:"omitempty,oneof=married partnered engaged other"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=current ended divorced widowed separated"`
	StartDate string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LineNum   int    `json:"-"`
}

// RawParentChild is a parent-child edge as read from an import file.
// The relationship type defaults to biological and confidence to 100.
type RawParentChild struct {
	ID               string `json:"id,omitempty" validate:"omitempty,max=128"`
	Parent           string `json:"parent" validate:"required"`
	Child            string `json:"child" validate:"required"`
	RelationshipType string `json:"relationshipType,omitempty" validate:"omitempty,oneof=biological adopted step foster other"`
	Verified         bool   `json:"verified,omitempty"`
	Confidence       *int   `json:"confidence,omitempty" validate:"omitempty,min=0,max=100"` // Pointer to distinguish 0 from unset
	LineNum          int    `json:"-"`
}

// RawEvidence is an evidence record as read from an import file.
type RawEvidence struct {
	ID          string  `json:"id,omitempty" validate:"omitempty,max=128"`
	PersonA     string  `json:"personA" validate:"required"`
	PersonB     string  `json:"personB" validate:"required"`
	Kind        string  `json:"kind" validate:"required,oneof=document dna photo other"`
	Strength    float64 `json:"strength" validate:"gte=0,lte=1"`
	Description string  `json:"description,omitempty"`
	LineNum     int     `json:"-"`
}

// RawHousehold places a person in a household.
type RawHousehold struct {
	HouseholdID string `json:"householdId" validate:"required"`
	PersonID    string `json:"personId" validate:"required"`
	LineNum     int    `json:"-"`
}

// RawResidence records where a person lived.
type RawResidence struct {
	PersonID string `json:"personId" validate:"required"`
	Location string `json:"location" validate:"required"`
	LineNum  int    `json:"-"`
}

// Document is the full content of an import or export file.
type Document struct {
	People       []RawPerson      `json:"people,omitempty"`
	Partnerships []RawPartnership `json:"partnerships,omitempty"`
	ParentChild  []RawParentChild `json:"parentChild,omitempty"`
	Evidence     []RawEvidence    `json:"evidence,omitempty"`
	Households   []RawHousehold   `json:"households,omitempty"`
	Residences   []RawResidence   `json:"residences,omitempty"`
}

// Len returns the total number of records in the document.
func (d *Document) Len() int {
	return len(d.People) + len(d.Partnerships) + len(d.ParentChild) +
		len(d.Evidence) + len(d.Households) + len(d.Residences)
}

// Parser defines the interface for parsing family records.
type Parser interface {
	Parse(r io.Reader) (*Document, error)
}

// Encoder writes a document in a specific format.
type Encoder interface {
	Encode(w io.Writer, doc *Document) error
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	return ForFormat(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// EncoderFor returns the encoder for the given format.
func EncoderFor(format string) Encoder {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ToPerson converts the record. Dates must already have passed Validate.
func (r RawPerson) ToPerson() (entities.Person, error) {
	birth, err := parseDate(r.BirthDate)
	if err != nil {
		return entities.Person{}, err
	}
	death, err := parseDate(r.DeathDate)
	if err != nil {
		return entities.Person{}, err
	}
	return entities.Person{
		ID:          r.ID,
		DisplayName: strings.TrimSpace(r.DisplayName),
		Surname:     strings.TrimSpace(r.Surname),
		BirthDate:   birth,
		DeathDate:   death,
		IsDeceased:  r.IsDeceased || death != nil,
		PhotoURL:    r.PhotoURL,
	}, nil
}

// ToEdge converts the record, applying defaults for kind and status.
func (r RawPartnership) ToEdge() (entities.PartnershipEdge, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return entities.PartnershipEdge{}, err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return entities.PartnershipEdge{}, err
	}
	kind := entities.PartnershipKind(r.Kind)
	if kind == "" {
		kind = entities.PartnershipPartnered
	}
	status := entities.PartnershipStatus(r.Status)
	if status == "" {
		status = entities.StatusCurrent
	}
	return entities.PartnershipEdge{
		ID:        r.ID,
		PersonA:   r.PersonA,
		PersonB:   r.PersonB,
		Kind:      kind,
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// ToEdge converts the record, applying defaults for type and confidence.
func (r RawParentChild) ToEdge() entities.ParentChildEdge {
	rt := entities.RelationshipType(r.RelationshipType)
	if rt == "" {
		rt = entities.RelationBiological
	}
	confidence := 100
	if r.Confidence != nil {
		confidence = *r.Confidence
	}
	return entities.ParentChildEdge{
		ID:               r.ID,
		Parent:           r.Parent,
		Child:            r.Child,
		RelationshipType: rt,
		Verified:         r.Verified,
		Confidence:       confidence,
	}
}

// ToRecord converts the record.
func (r RawEvidence) ToRecord() entities.EvidenceRecord {
	return entities.EvidenceRecord{
		ID:          r.ID,
		PersonA:     r.PersonA,
		PersonB:     r.PersonB,
		Kind:        entities.EvidenceKind(r.Kind),
		Strength:    r.Strength,
		Description: r.Description,
	}
}

// FromPerson builds an export record.
func FromPerson(p entities.Person) RawPerson {
	return RawPerson{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Surname:     p.Surname,
		BirthDate:   formatDate(p.BirthDate),
		DeathDate:   formatDate(p.DeathDate),
		IsDeceased:  p.IsDeceased,
		PhotoURL:    p.PhotoURL,
	}
}

// FromPartnership builds an export record.
func FromPartnership(e entities.PartnershipEdge) RawPartnership {
	return RawPartnership{
		ID:        e.ID,
		PersonA:   e.PersonA,
		PersonB:   e.PersonB,
		Kind:      string(e.Kind),
		Status:    string(e.Status),
		StartDate: formatDate(e.StartDate),
		EndDate:   formatDate(e.EndDate),
	}
}

// FromParentChild builds an export record.
func FromParentChild(e entities.ParentChildEdge) RawParentChild {
	confidence := e.Confidence
	return RawParentChild{
		ID:               e.ID,
		Parent:           e.Parent,
		Child:            e.Child,
		RelationshipType: string(e.RelationshipType),
		Verified:         e.Verified,
		Confidence:       &confidence,
	}
}

// FromEvidence builds an export record.
func FromEvidence(e entities.EvidenceRecord) RawEvidence {
	return RawEvidence{
		ID:          e.ID,
		PersonA:     e.PersonA,
		PersonB:     e.PersonB,
		Kind:        string(e.Kind),
		Strength:    e.Strength,
		Description: e.Description,
	}
}
