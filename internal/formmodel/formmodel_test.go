package formmodel

import "testing"

func TestApplyRadioExclusion(t *testing.T) {
	a := &PositionedWidget{Blueprint: Blueprint{Kind: WidgetRadio, Name: "color", FormIndex: 0}, Runtime: RuntimeState{Checked: true}}
	b := &PositionedWidget{Blueprint: Blueprint{Kind: WidgetRadio, Name: "color", FormIndex: 0}, Runtime: RuntimeState{Checked: true}}
	other := &PositionedWidget{Blueprint: Blueprint{Kind: WidgetRadio, Name: "color", FormIndex: 1}, Runtime: RuntimeState{Checked: true}}

	widgets := []*PositionedWidget{a, b, other}
	ApplyRadioExclusion(widgets, b)

	if a.Runtime.Checked {
		t.Fatal("expected sibling in same group to be unchecked")
	}
	if !b.Runtime.Checked {
		t.Fatal("target widget must remain checked")
	}
	if !other.Runtime.Checked {
		t.Fatal("widget in a different form's group must be unaffected")
	}
}

func TestEncodeGETQueryScenario3(t *testing.T) {
	fields := []struct{ Name, Value string }{{"q", "a b"}}
	got := EncodeGETQuery(fields)
	if want := "q=a+b"; got != want {
		t.Fatalf("EncodeGETQuery = %q, want %q", got, want)
	}
}

func TestSerializeFieldsSkipsUncheckedAndWrongForm(t *testing.T) {
	widgets := []*PositionedWidget{
		{Blueprint: Blueprint{Kind: WidgetTextInput, Name: "name", FormIndex: 0}, Runtime: RuntimeState{Value: "bob"}},
		{Blueprint: Blueprint{Kind: WidgetCheckbox, Name: "subscribe", FormIndex: 0}, Runtime: RuntimeState{Value: "yes", Checked: false}},
		{Blueprint: Blueprint{Kind: WidgetTextInput, Name: "other", FormIndex: 1}, Runtime: RuntimeState{Value: "ignored"}},
	}
	fields := SerializeFields(widgets, 0)
	if len(fields) != 1 || fields[0].Name != "name" || fields[0].Value != "bob" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}
