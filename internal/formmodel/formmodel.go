// Package formmodel implements the form/widget data model (spec §3.6): a
// FormState plus an ordered PositionedWidget list, each widget carrying a
// static blueprint (kind, name, default value, options) and mutable
// runtime state (current value, cursor, checked flag, selected index).
// Grounded on the teacher's internal/parse package for the directive/blob
// extraction shape (a typed struct accumulated while scanning markup) and
// on internal/codec for GET/POST field serialization.
package formmodel

import (
	"strings"

	"github.com/loomweb/loom/internal/codec"
)

// WidgetKind is the closed set of form-control shapes the tree constructor
// recognizes (spec §4.2: input/textarea/select/button).
type WidgetKind int

const (
	WidgetTextInput WidgetKind = iota
	WidgetPassword
	WidgetCheckbox
	WidgetRadio
	WidgetSubmit
	WidgetButton
	WidgetTextarea
	WidgetSelect
)

// Blueprint is a widget's static shape, extracted once at parse time
// (spec §4.2's WidgetBlueprint).
type Blueprint struct {
	Kind         WidgetKind
	Name         string
	DefaultValue string
	Options      []string // <select> option values, in document order
	FormIndex    int       // index into Document.Forms, or -1 if unowned
}

// RuntimeState is a widget's mutable, user-editable state (spec §3.6).
type RuntimeState struct {
	Value         string
	Cursor        int
	Checked       bool
	SelectedIndex int
}

// NewRuntimeState seeds a widget's live state from its blueprint defaults.
func NewRuntimeState(b Blueprint) RuntimeState {
	rs := RuntimeState{Value: b.DefaultValue}
	if b.Kind == WidgetCheckbox || b.Kind == WidgetRadio {
		rs.Checked = false
	}
	return rs
}

// PositionedWidget is a widget placed by layout (spec §3.5/§4.4): the
// blueprint and runtime state plus the box layout assigned it.
type PositionedWidget struct {
	Blueprint Blueprint
	Runtime   RuntimeState
	X, Y      int
	W, H      int
}

// FormState is one <form>'s submission target (spec §3.6).
type FormState struct {
	Action  string
	Method  string // "GET" or "POST"
	Enctype string
}

// RadioGroupKey identifies a mutually-exclusive radio group (spec §3.6:
// "(form_index, name)").
type RadioGroupKey struct {
	FormIndex int
	Name      string
}

// ApplyRadioExclusion enforces that at most one widget in target's radio
// group is checked, per spec §3.6: "mutual exclusion is enforced on
// update." widgets is mutated in place.
func ApplyRadioExclusion(widgets []*PositionedWidget, target *PositionedWidget) {
	if target.Blueprint.Kind != WidgetRadio {
		return
	}
	key := RadioGroupKey{FormIndex: target.Blueprint.FormIndex, Name: target.Blueprint.Name}
	for _, w := range widgets {
		if w == target || w.Blueprint.Kind != WidgetRadio {
			continue
		}
		if (RadioGroupKey{FormIndex: w.Blueprint.FormIndex, Name: w.Blueprint.Name}) == key {
			w.Runtime.Checked = false
		}
	}
}

// SerializeFields builds the ordered name=value pairs a form submission
// sends: checkboxes/radios contribute only when checked, selects
// contribute their selected option.
func SerializeFields(widgets []*PositionedWidget, formIndex int) []struct{ Name, Value string } {
	var fields []struct{ Name, Value string }
	for _, w := range widgets {
		if w.Blueprint.FormIndex != formIndex || w.Blueprint.Name == "" {
			continue
		}
		switch w.Blueprint.Kind {
		case WidgetCheckbox, WidgetRadio:
			if w.Runtime.Checked {
				fields = append(fields, struct{ Name, Value string }{w.Blueprint.Name, w.Runtime.Value})
			}
		case WidgetSelect:
			idx := w.Runtime.SelectedIndex
			if idx >= 0 && idx < len(w.Blueprint.Options) {
				fields = append(fields, struct{ Name, Value string }{w.Blueprint.Name, w.Blueprint.Options[idx]})
			}
		case WidgetButton:
			// Buttons without a name contribute nothing; named buttons are
			// rare enough that the core does not special-case submit value.
		default:
			fields = append(fields, struct{ Name, Value string }{w.Blueprint.Name, w.Runtime.Value})
		}
	}
	return fields
}

// EncodeGETQuery builds the query string appended to a form's action for
// method="GET" (spec §8 scenario #3: http://h/s?q=a+b).
func EncodeGETQuery(fields []struct{ Name, Value string }) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, codec.FormEncode(f.Name)+"="+codec.FormEncode(f.Value))
	}
	return strings.Join(parts, "&")
}

// EncodePOSTBody builds the application/x-www-form-urlencoded request body
// for method="POST".
func EncodePOSTBody(fields []struct{ Name, Value string }) string {
	return EncodeGETQuery(fields)
}
