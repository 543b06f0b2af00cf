package dbtypes

import "testing"

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"north", "east side"}

	raw, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded StringList
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "north" || decoded[1] != "east side" {
		t.Fatalf("unexpected decoded value %v", decoded)
	}
}

func TestStringListScanEmpty(t *testing.T) {
	var list StringList
	if err := list.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}

	if err := list.Scan("[]"); err != nil {
		t.Fatalf("scan []: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestStringListEmptyValue(t *testing.T) {
	var list StringList
	raw, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("expected [], got %v", raw)
	}
}

func TestStringListScanRejectsGarbage(t *testing.T) {
	var list StringList
	if err := list.Scan("{not json"); err == nil {
		t.Fatal("expected parse error")
	}
	if err := list.Scan(42); err == nil {
		t.Fatal("expected unsupported type error")
	}
}
