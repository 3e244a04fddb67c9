package catalog

import (
	"fmt"
	"strings"

	"github.com/shopsync/backend/internal/domain/shared"
)

// Field is one pushable part of a product
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldCategories  Field = "categories"
	FieldPrices      Field = "prices"
	FieldStock       Field = "stock"
	FieldStatus      Field = "status"
	FieldImages      Field = "images"
)

// AllFields lists every field in push order
var AllFields = []Field{
	FieldName, FieldDescription, FieldCategories, FieldPrices, FieldStock, FieldStatus, FieldImages,
}

func (f Field) bit() FieldSet {
	for i, known := range AllFields {
		if known == f {
			return 1 << uint(i)
		}
	}
	return 0
}

// IsValid reports whether the field is known
func (f Field) IsValid() bool {
	return f.bit() != 0
}

// FieldSet is a selection of fields to push
type FieldSet uint8

// DefaultFields is every field except images. Images are opt-in because
// pushing them purges and re-attaches the whole media set.
func DefaultFields() FieldSet {
	return NewFieldSet(FieldName, FieldDescription, FieldCategories, FieldPrices, FieldStock, FieldStatus)
}

// NewFieldSet builds a set from known fields; unknown fields are ignored
func NewFieldSet(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= f.bit()
	}
	return s
}

// ParseFields parses a requested field list.
// nil means "not specified" and yields DefaultFields; an empty non-nil list
// and unknown names are input errors.
func ParseFields(raw []string) (FieldSet, error) {
	if raw == nil {
		return DefaultFields(), nil
	}
	if len(raw) == 0 {
		return 0, shared.NewDomainError("INVALID_FIELDS", "fields must not be empty when specified")
	}
	var s FieldSet
	for _, r := range raw {
		f := Field(strings.ToLower(strings.TrimSpace(r)))
		if !f.IsValid() {
			return 0, shared.NewDomainError("INVALID_FIELDS", fmt.Sprintf("unknown field %q", r))
		}
		s |= f.bit()
	}
	return s, nil
}

// Has reports whether f is selected
func (s FieldSet) Has(f Field) bool {
	b := f.bit()
	return b != 0 && s&b != 0
}

// HasAny reports whether any of fs is selected
func (s FieldSet) HasAny(fs ...Field) bool {
	for _, f := range fs {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing is selected
func (s FieldSet) IsEmpty() bool {
	return s == 0
}

// Fields returns the selected fields in push order
func (s FieldSet) Fields() []Field {
	out := make([]Field, 0, len(AllFields))
	for _, f := range AllFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String returns a comma separated list, e.g. "name,prices"
func (s FieldSet) String() string {
	fs := s.Fields()
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
