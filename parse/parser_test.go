package parse

import (
	"reflect"
	"testing"

	"github.com/harrowgate/pdf/model"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		input string
		want  model.Object
	}{
		{"null", model.Null{}},
		{"true", model.Boolean(true)},
		{"false", model.Boolean(false)},
		{"123", model.Integer(123)},
		{"-17", model.Integer(-17)},
		{"3.14", model.Real(3.14)},
		{"/Name", model.Name("Name")},
		{"(hello)", model.String{Value: []byte("hello"), Format: model.Literal}},
		{"<68656C6C6F>", model.String{Value: []byte("hello"), Format: model.Hex}},
		{"12 0 R", model.Reference{Number: 12, Generation: 0}},
		{"[1 2 3]", model.Array{model.Integer(1), model.Integer(2), model.Integer(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseObject([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseObject(%q): %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseObject(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDictPreservesOrder(t *testing.T) {
	got, err := ParseObject([]byte("<< /Z 1 /A 2 /M 3 >>"))
	if err != nil {
		t.Fatal(err)
	}
	d, ok := got.(model.Dict)
	if !ok {
		t.Fatalf("expected a Dict, got %T", got)
	}
	want := []model.Name{"Z", "A", "M"}
	got2 := d.Keys()
	if !reflect.DeepEqual(got2, want) {
		t.Errorf("key order = %v, want %v", got2, want)
	}
}

func TestParseDictNullEntryIsOmitted(t *testing.T) {
	got, err := ParseObject([]byte("<< /A 1 /B null /C 3 >>"))
	if err != nil {
		t.Fatal(err)
	}
	d := got.(model.Dict)
	if _, ok := d.Get("B"); ok {
		t.Error("a null-valued entry should be omitted, per 7.3.7")
	}
	if d.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", d.Len())
	}
}

func TestParseRelaxedDictTolerance(t *testing.T) {
	// Missing closing >>; parseDict should fall back to the relaxed pass
	// rather than failing the whole object, and the duplicate key keeps
	// its last value.
	got, err := ParseObject([]byte("<< /A 1 /A 2"))
	if err != nil {
		t.Fatal(err)
	}
	d := got.(model.Dict)
	v, _ := d.Get("A")
	if v != model.Integer(2) {
		t.Errorf("duplicate key should keep the last value, got %v", v)
	}
}

func TestParseArrayNotTerminated(t *testing.T) {
	_, err := ParseObject([]byte("[1 2 3"))
	if err == nil {
		t.Fatal("expected an error for an unterminated array")
	}
}

func TestParseObjectDefinition(t *testing.T) {
	num, gen, obj, err := ParseObjectDefinition([]byte("12 0 obj << /Type /Catalog >>"), false)
	if err != nil {
		t.Fatal(err)
	}
	if num != 12 || gen != 0 {
		t.Errorf("got object %d %d, want 12 0", num, gen)
	}
	d, ok := obj.(model.Dict)
	if !ok {
		t.Fatalf("expected a Dict, got %T", obj)
	}
	ty, _ := d.Get("Type")
	if ty != model.Name("Catalog") {
		t.Errorf("got /Type %v, want /Catalog", ty)
	}
}
