package services

import (
	"reflect"
	"testing"
)

func TestUpdateBuilderPartialFields(t *testing.T) {
	title := "X"
	b := NewUpdate()
	b.SetString("title_th", &title)
	b.SetString("description", nil)
	b.Set("updated_at", "now")

	if b.Empty() {
		t.Fatalf("builder should not be empty")
	}
	query, args := b.Build("courses", "id", "c-001")
	wantQuery := "UPDATE courses SET title_th = $1, updated_at = $2 WHERE id = $3"
	if query != wantQuery {
		t.Fatalf("query = %q, want %q", query, wantQuery)
	}
	wantArgs := []interface{}{"X", "now", "c-001"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %#v, want %#v", args, wantArgs)
	}
}

func TestUpdateBuilderSkipsAbsentFields(t *testing.T) {
	b := NewUpdate()
	b.SetString("title_th", nil)
	b.SetInt("duration_hours", nil)
	b.SetBool("has_certificate", nil)
	if !b.Empty() {
		t.Fatalf("builder with no present fields should be empty")
	}
}

func TestUpdateBuilderTypedSetters(t *testing.T) {
	hours := 12
	certified := true
	b := NewUpdate()
	b.SetInt("duration_hours", &hours)
	b.SetBool("has_certificate", &certified)
	query, args := b.Build("courses", "id", "c-002")
	want := "UPDATE courses SET duration_hours = $1, has_certificate = $2 WHERE id = $3"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if args[0] != 12 || args[1] != true || args[2] != "c-002" {
		t.Fatalf("unexpected args: %#v", args)
	}
}
