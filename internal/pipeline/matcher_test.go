package pipeline

import (
	"reflect"
	"testing"
)

type rawComment struct {
	PostID    string
	Author    string
	Body      string
	NoResults bool
}

func commentKey(c rawComment) string {
	return c.PostID + "|" + c.Author + "|" + c.Body
}

func commentNoise(c rawComment) bool {
	return c.NoResults
}

func TestDedupe_DropsNoiseAndAmbiguousDuplicates(t *testing.T) {
	t.Parallel()

	batch := []rawComment{
		{PostID: "p1", Author: "ana", Body: "great"},
		{PostID: "p1", Author: "bob", Body: "nope"},
		{PostID: "p1", Author: "bob", Body: "nope"},
		{PostID: "p2", Author: "eve", Body: "meh"},
		{PostID: "p2", NoResults: true},
	}

	got := Dedupe(batch, commentKey, commentNoise, DropAmbiguous)
	if len(got) != 2 {
		t.Fatalf("expected 2 survivors, got %d: %#v", len(got), got)
	}
	want := []rawComment{
		{PostID: "p1", Author: "ana", Body: "great"},
		{PostID: "p2", Author: "eve", Body: "meh"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected survivors: got %#v want %#v", got, want)
	}
}

func TestDedupe_KeepFirstKeepsOneOfEachKey(t *testing.T) {
	t.Parallel()

	batch := []rawComment{
		{PostID: "p1", Author: "ana", Body: "great"},
		{PostID: "p1", Author: "bob", Body: "nope"},
		{PostID: "p1", Author: "bob", Body: "nope"},
		{PostID: "p2", Author: "eve", Body: "meh"},
		{PostID: "p2", NoResults: true},
	}

	got := Dedupe(batch, commentKey, commentNoise, KeepFirst)
	if len(got) != 3 {
		t.Fatalf("expected 3 survivors, got %d: %#v", len(got), got)
	}
	if got[1].Author != "bob" {
		t.Fatalf("expected first duplicate occurrence kept, got %#v", got[1])
	}
}

func TestDedupe_EmptyBatch(t *testing.T) {
	t.Parallel()

	got := Dedupe(nil, commentKey, commentNoise, DropAmbiguous)
	if len(got) != 0 {
		t.Fatalf("expected empty result for empty batch, got %#v", got)
	}
}

func TestDedupe_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	batch := []rawComment{
		{PostID: "p3", Author: "c", Body: "3"},
		{PostID: "p1", Author: "a", Body: "1"},
		{PostID: "p2", Author: "b", Body: "2"},
	}

	got := Dedupe(batch, commentKey, commentNoise, DropAmbiguous)
	if !reflect.DeepEqual(got, batch) {
		t.Fatalf("order not preserved: got %#v", got)
	}
}

func TestDedupe_NilNoiseFunc(t *testing.T) {
	t.Parallel()

	batch := []rawComment{{PostID: "p1", Author: "ana", Body: "x"}}
	got := Dedupe(batch, commentKey, nil, DropAmbiguous)
	if len(got) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(got))
	}
}
