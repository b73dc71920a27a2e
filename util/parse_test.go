package util

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10MB", 10 << 20},
		{"512kb", 512 << 10},
		{"2GB", 2 << 30},
		{"100", 100},
		{"100B", 100},
		{"", 7},
		{"lots", 7},
		{"-1MB", 7},
	}
	for _, tc := range tests {
		if got := ParseSize(tc.in, 7); got != tc.want {
			t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseFormBool(t *testing.T) {
	for _, s := range []string{"true", "1", "TRUE", " yes ", "on"} {
		if !ParseFormBool(s) {
			t.Errorf("expected %q to be true", s)
		}
	}
	for _, s := range []string{"", "false", "0", "maybe"} {
		if ParseFormBool(s) {
			t.Errorf("expected %q to be false", s)
		}
	}
}

func TestParseFormInt(t *testing.T) {
	if _, ok, err := ParseFormInt(""); ok || err != nil {
		t.Errorf("empty should be absent without error")
	}
	if v, ok, err := ParseFormInt(" 5 "); !ok || err != nil || v != 5 {
		t.Errorf("expected 5, got %d %v %v", v, ok, err)
	}
	if _, _, err := ParseFormInt("five"); err == nil {
		t.Error("expected error for malformed int")
	}
}

func TestCoalesceAndDeref(t *testing.T) {
	if Coalesce("", "", "x", "y") != "x" {
		t.Error("expected first non-zero value")
	}
	if Deref[int](nil) != 0 || Deref(Ptr(3)) != 3 {
		t.Error("unexpected Deref result")
	}
}
