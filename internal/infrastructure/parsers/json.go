package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses and writes family records in JSON format.
type JSONParser struct{}

// Parse reads a JSON document from the reader.
func (p *JSONParser) Parse(r io.Reader) (*Document, error) {
	var doc Document

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &doc, nil
}

// Encode writes the document as indented JSON.
func (p *JSONParser) Encode(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
