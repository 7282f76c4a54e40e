// Package diff computes field-level changes between an entity's stored state
// and a proposed update. It is pure: no I/O, and identical inputs always
// produce identical output, so audit rows stay reproducible.
package diff

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chenil/internal/models"
)

// EmptyDisplay is the marker shown for unset values.
const EmptyDisplay = "(empty)"

// dateLayout is the canonical storage form; display uses DD/MM/YYYY.
const (
	dateLayout        = "2006-01-02"
	dateDisplayLayout = "02/01/2006"
)

// FieldDef describes one tracked field of an entity. Fields not listed in an
// entity's definition table are never diffed, whatever the caller proposes.
type FieldDef struct {
	Name   string
	Label  string
	Kind   models.FieldKind
	Labels map[string]string
}

// Value is one field's state in canonical form. The zero Value is the unset
// state; proposing it over a non-empty old value records a removal.
type Value struct {
	raw   string
	label string
	set   bool
}

// Empty returns the unset value.
func Empty() Value {
	return Value{}
}

// String builds a text or enum value. An empty string is the unset state.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{raw: s, set: true}
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{raw: strconv.FormatBool(b), set: true}
}

// Date builds a date value; only the calendar day is significant.
func Date(t time.Time) Value {
	return Value{raw: t.Format(dateLayout), set: true}
}

// Relation builds a to-one reference value. Comparison uses the referenced
// id; display uses the referenced record's name.
func Relation(id uint, name string) Value {
	if id == 0 {
		return Value{}
	}
	return Value{raw: strconv.FormatUint(uint64(id), 10), label: name, set: true}
}

// Raw exposes the canonical comparison form.
func (v Value) Raw() string {
	return v.raw
}

// Snapshot holds an entity's current tracked-field values keyed by field name.
type Snapshot map[string]Value

// Proposal holds the fields a mutation wants to change. Absent keys are left
// untouched; a present key with the Empty value clears the field.
type Proposal map[string]Value

// Diff compares old state against proposed fields over the given definitions,
// in definition order. Only fields present in the proposal are considered,
// and a change is emitted only when the canonical values differ.
func Diff(defs []FieldDef, old Snapshot, proposed Proposal) []models.FieldChange {
	if len(proposed) == 0 {
		return nil
	}

	var changes []models.FieldChange
	for _, def := range defs {
		next, ok := proposed[def.Name]
		if !ok {
			continue
		}
		prev := old[def.Name]
		if prev.raw == next.raw && prev.set == next.set {
			continue
		}
		changes = append(changes, models.FieldChange{
			Field:      def.Name,
			Label:      def.Label,
			Kind:       def.Kind,
			Old:        prev.raw,
			New:        next.raw,
			OldDisplay: formatValue(def, prev),
			NewDisplay: formatValue(def, next),
			Removed:    prev.set && !next.set,
		})
	}
	return changes
}

// Summarize renders a one-line description of a mutation: the entity's
// display name alone when nothing changed, otherwise the name followed by
// "label: old → new" fragments.
func Summarize(displayName string, changes []models.FieldChange) string {
	if len(changes) == 0 {
		return displayName
	}
	parts := make([]string, 0, len(changes))
	for _, ch := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", ch.Label, ch.OldDisplay, ch.NewDisplay))
	}
	return displayName + ": " + strings.Join(parts, ", ")
}

// formatValue renders one value for humans according to its field kind.
func formatValue(def FieldDef, v Value) string {
	if !v.set {
		return EmptyDisplay
	}
	switch def.Kind {
	case models.FieldBoolean:
		if v.raw == "true" {
			return "yes"
		}
		return "no"
	case models.FieldDate:
		t, err := time.Parse(dateLayout, v.raw)
		if err != nil {
			return v.raw
		}
		return t.Format(dateDisplayLayout)
	case models.FieldEnum:
		if label, ok := def.Labels[v.raw]; ok {
			return label
		}
		return v.raw
	case models.FieldRelation:
		if v.label != "" {
			return v.label
		}
		return v.raw
	default:
		return v.raw
	}
}
