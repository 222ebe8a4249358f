package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record tags for the "record" column.
const (
	RecordPerson      = "person"
	RecordPartnership = "partnership"
	RecordParentChild = "parent_child"
	RecordEvidence    = "evidence"
	RecordHousehold   = "household"
	RecordResidence   = "residence"
)

// csvColumns is the column order written by Encode. Each row fills only
// the columns that apply to its record type.
var csvColumns = []string{
	"record", "id",
	"display_name", "surname", "birth_date", "death_date", "deceased", "photo_url",
	"person_a", "person_b", "kind", "status", "start_date", "end_date",
	"parent", "child", "relationship_type", "verified", "confidence",
	"strength", "description",
	"household_id", "person_id", "location",
}

// CSVParser parses and writes family records in CSV format. Every row
// carries a "record" column naming what it holds.
type CSVParser struct{}

// Parse reads CSV from the reader and returns the document.
func (p *CSVParser) Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	if _, ok := colIndex["record"]; !ok {
		return nil, fmt.Errorf("missing required column: record")
	}
	return colIndex, nil
}

// readRecords reads all data rows into the document.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) (*Document, error) {
	doc := &Document{}
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		row := csvRow{record: record, colIndex: colIndex}
		if err := p.parseRecord(doc, row, lineNum); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return doc, nil
}

// parseRecord appends one row to the matching section of the document.
func (p *CSVParser) parseRecord(doc *Document, row csvRow, lineNum int) error {
	switch kind := row.get("record"); kind {
	case RecordPerson:
		deceased, err := row.bool("deceased")
		if err != nil {
			return err
		}
		doc.People = append(doc.People, RawPerson{
			ID:          row.get("id"),
			DisplayName: row.get("display_name"),
			Surname:     row.get("surname"),
			BirthDate:   row.get("birth_date"),
			DeathDate:   row.get("death_date"),
			IsDeceased:  deceased,
			PhotoURL:    row.get("photo_url"),
			LineNum:     lineNum,
		})

	case RecordPartnership:
		doc.Partnerships = append(doc.Partnerships, RawPartnership{
			ID:        row.get("id"),
			PersonA:   row.get("person_a"),
			PersonB:   row.get("person_b"),
			Kind:      row.get("kind"),
			Status:    row.get("status"),
			StartDate: row.get("start_date"),
			EndDate:   row.get("end_date"),
			LineNum:   lineNum,
		})

	case RecordParentChild:
		verified, err := row.bool("verified")
		if err != nil {
			return err
		}
		rec := RawParentChild{
			ID:               row.get("id"),
			Parent:           row.get("parent"),
			Child:            row.get("child"),
			RelationshipType: row.get("relationship_type"),
			Verified:         verified,
			LineNum:          lineNum,
		}
		if s := row.get("confidence"); s != "" {
			conf, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid confidence value %q: %w", s, err)
			}
			rec.Confidence = &conf
		}
		doc.ParentChild = append(doc.ParentChild, rec)

	case RecordEvidence:
		rec := RawEvidence{
			ID:          row.get("id"),
			PersonA:     row.get("person_a"),
			PersonB:     row.get("person_b"),
			Kind:        row.get("kind"),
			Description: row.get("description"),
			LineNum:     lineNum,
		}
		if s := row.get("strength"); s != "" {
			strength, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid strength value %q: %w", s, err)
			}
			rec.Strength = strength
		}
		doc.Evidence = append(doc.Evidence, rec)

	case RecordHousehold:
		doc.Households = append(doc.Households, RawHousehold{
			HouseholdID: row.get("household_id"),
			PersonID:    row.get("person_id"),
			LineNum:     lineNum,
		})

	case RecordResidence:
		doc.Residences = append(doc.Residences, RawResidence{
			PersonID: row.get("person_id"),
			Location: row.get("location"),
			LineNum:  lineNum,
		})

	default:
		return fmt.Errorf("unknown record type %q", kind)
	}
	return nil
}

type csvRow struct {
	record   []string
	colIndex map[string]int
}

// get safely retrieves a trimmed column value.
func (r csvRow) get(col string) string {
	if idx, ok := r.colIndex[col]; ok && idx < len(r.record) {
		return strings.TrimSpace(r.record[idx])
	}
	return ""
}

func (r csvRow) bool(col string) (bool, error) {
	s := r.get(col)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", col, s, err)
	}
	return b, nil
}

// Encode writes the document as CSV with the full column set.
func (p *CSVParser) Encode(w io.Writer, doc *Document) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	write := func(values map[string]string) error {
		row := make([]string, len(csvColumns))
		for i, col := range csvColumns {
			row[i] = values[col]
		}
		return writer.Write(row)
	}

	for _, r := range doc.People {
		if err := write(map[string]string{
			"record": RecordPerson, "id": r.ID, "display_name": r.DisplayName, "surname": r.Surname,
			"birth_date": r.BirthDate, "death_date": r.DeathDate,
			"deceased": strconv.FormatBool(r.IsDeceased), "photo_url": r.PhotoURL,
		}); err != nil {
			return fmt.Errorf("writing person: %w", err)
		}
	}
	for _, r := range doc.Partnerships {
		if err := write(map[string]string{
			"record": RecordPartnership, "id": r.ID, "person_a": r.PersonA, "person_b": r.PersonB,
			"kind": r.Kind, "status": r.Status, "start_date": r.StartDate, "end_date": r.EndDate,
		}); err != nil {
			return fmt.Errorf("writing partnership: %w", err)
		}
	}
	for _, r := range doc.ParentChild {
		conf := ""
		if r.Confidence != nil {
			conf = strconv.Itoa(*r.Confidence)
		}
		if err := write(map[string]string{
			"record": RecordParentChild, "id": r.ID, "parent": r.Parent, "child": r.Child,
			"relationship_type": r.RelationshipType, "verified": strconv.FormatBool(r.Verified), "confidence": conf,
		}); err != nil {
			return fmt.Errorf("writing parent-child edge: %w", err)
		}
	}
	for _, r := range doc.Evidence {
		if err := write(map[string]string{
			"record": RecordEvidence, "id": r.ID, "person_a": r.PersonA, "person_b": r.PersonB,
			"kind": r.Kind, "strength": strconv.FormatFloat(r.Strength, 'f', -1, 64), "description": r.Description,
		}); err != nil {
			return fmt.Errorf("writing evidence: %w", err)
		}
	}
	for _, r := range doc.Households {
		if err := write(map[string]string{"record": RecordHousehold, "household_id": r.HouseholdID, "person_id": r.PersonID}); err != nil {
			return fmt.Errorf("writing household: %w", err)
		}
	}
	for _, r := range doc.Residences {
		if err := write(map[string]string{"record": RecordResidence, "person_id": r.PersonID, "location": r.Location}); err != nil {
			return fmt.Errorf("writing residence: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
