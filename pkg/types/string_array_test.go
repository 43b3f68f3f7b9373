package types

import "testing"

func TestStringArrayRoundTrip(t *testing.T) {
	t.Parallel()

	src := StringArray{"Red", "Blue"}
	val, err := src.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var dst StringArray
	if err := dst.Scan(val); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(dst) != 2 || dst[0] != "Red" || dst[1] != "Blue" {
		t.Fatalf("unexpected result: %v", dst)
	}
}

func TestStringArrayScanNil(t *testing.T) {
	t.Parallel()

	var dst StringArray
	if err := dst.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if dst != nil {
		t.Fatalf("expected nil, got %v", dst)
	}
}
