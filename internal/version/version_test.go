package version

import "testing"

func TestParseKeepsDeclaredForm(t *testing.T) {
	v, err := Parse("0.1.0-3")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v.String() != "0.1.0-3" {
		t.Errorf("Expected 0.1.0-3, got %s", v.String())
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "1.0 beta"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Expected error parsing %q", s)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0-1", "1.0-1", 0},
		{"1.0-1", "1.0-2", -1},
		{"1.10-1", "1.9-1", 1},
		{"1:0.1-1", "2.0-1", 1},
		{"1.0~rc1-1", "1.0-1", -1},
	}

	for _, tt := range tests {
		got := MustParse(tt.a).Compare(MustParse(tt.b))
		if got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	if !MustParse("1.0-1").LessThan(MustParse("1.0-2")) {
		t.Error("Expected 1.0-1 < 1.0-2")
	}
	if !MustParse("2.0").Equal(MustParse("2.0")) {
		t.Error("Expected 2.0 == 2.0")
	}
}
