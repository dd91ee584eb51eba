package count

import (
	"errors"
	"testing"

	"github.com/dustin/go-humanize"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.5K", 12500},
		{"3M", 3000000},
		{"1,234", 1234},
		{"  987  ", 987},
		{"12.5k", 12500},
		{"1.2B", 1200000000},
		{"228.4M", 228400000},
		{"1 234 567", 1234567},
		{"1.005K", 1005},
		{"1.2345K", 1234},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParse_Failures(t *testing.T) {
	for _, in := range []string{
		"", "   ", "abc", "K", "1.2.3K", "12x", "-5", "--",
		"99999999999B", "1E18K", "1e3K", "0x1P3K", "+5", ".5K", "5.K", "1.5",
		"9223372036854775808",
	} {
		if _, err := Parse(in); !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q) expected ErrParse, got %v", in, err)
		}
	}
}

func TestParse_CommaGroupedRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 7, 999, 1000, 12345, 1234567, 987654321, 9223372036854775807} {
		text := humanize.Comma(n)
		got, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", text, err)
		}
		if got != n {
			t.Errorf("Parse(%q) = %d, want %d", text, got, n)
		}
	}
}

func TestRange_Contains(t *testing.T) {
	if StructuralRange.Contains(500) {
		t.Error("structural range must reject 500")
	}
	if StructuralRange.Contains(1000) {
		t.Error("structural range must reject exactly 1,000")
	}
	if !StructuralRange.Contains(1001) || !StructuralRange.Contains(2_000_000_000) {
		t.Error("structural range must accept counts above 1,000 with no ceiling")
	}

	if GenericRange.Contains(50_000) {
		t.Error("generic range must reject 50,000")
	}
	if !GenericRange.Contains(150_000) {
		t.Error("generic range must accept 150,000")
	}
	if !GenericRange.Contains(100_000) || !GenericRange.Contains(500_000_000) {
		t.Error("generic range bounds are inclusive")
	}
	if GenericRange.Contains(500_000_001) {
		t.Error("generic range must reject values above 500,000,000")
	}
}
