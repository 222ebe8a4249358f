package parsers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// recordValidate checks struct tags on imported records.
var recordValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the input file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every record in the document and reports all failures
// at once. It does not check that referenced people exist.
func (d *Document) Validate() error {
	var errs []error
	check := func(section string, index, line int, rec any) {
		if err := recordValidate.Struct(rec); err != nil {
			errs = append(errs, recordError(section, index, line, err))
		}
	}

	for i, r := range d.People {
		check("people", i, r.LineNum, r)
	}
	for i, r := range d.Partnerships {
		check("partnerships", i, r.LineNum, r)
	}
	for i, r := range d.ParentChild {
		check("parentChild", i, r.LineNum, r)
	}
	for i, r := range d.Evidence {
		check("evidence", i, r.LineNum, r)
	}
	for i, r := range d.Households {
		check("households", i, r.LineNum, r)
	}
	for i, r := range d.Residences {
		check("residences", i, r.LineNum, r)
	}
	return errors.Join(errs...)
}

// ValidateRecord checks the field constraints of a single record, such as
// a RawParentChild built from command-line flags.
func ValidateRecord(rec any) error {
	if err := recordValidate.Struct(rec); err != nil {
		return recordError("", 0, 0, err)
	}
	return nil
}

// RecordError describes one record that failed validation.
type RecordError struct {
	Section string // people, partnerships, parentChild, evidence, households, residences
	Index   int    // Position within the section
	Line    int    // Source line, 0 when the format has none
	Field   string // First failing field, by its JSON name
	Message string
}

func (e *RecordError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	case e.Section == "":
		return e.Message
	}
	return fmt.Sprintf("%s[%d]: %s", e.Section, e.Index, e.Message)
}

// RecordErrors splits an error returned by Validate into its records.
func RecordErrors(err error) []*RecordError {
	if err == nil {
		return nil
	}
	var out []*RecordError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, RecordErrors(e)...)
		}
		return out
	}
	var re *RecordError
	if errors.As(err, &re) {
		out = append(out, re)
	}
	return out
}

func recordError(section string, index, line int, err error) error {
	re := &RecordError{Section: section, Index: index, Line: line, Message: err.Error()}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return re
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	if len(verrs) > 0 {
		re.Field = verrs[0].Field()
	}
	re.Message = strings.Join(msgs, "; ")
	return re
}
