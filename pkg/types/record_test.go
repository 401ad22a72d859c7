package types

import "testing"

func TestNormalizeOrderID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ORD-1", "ORD-1"},
		{"#ORD-1", "ORD-1"},
		{"  #100 ", "100"},
		{"##100", "#100"}, // only a single leading '#' is stripped
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeOrderID(c.in); got != c.want {
			t.Errorf("NormalizeOrderID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseFlag(t *testing.T) {
	if !ParseFlag("TRUE") {
		t.Error(`expected "TRUE" to decode true`)
	}
	for _, cell := range []string{"", "FALSE", "true", "True", "1", "yes"} {
		if ParseFlag(cell) {
			t.Errorf("expected %q to decode false", cell)
		}
	}
}

func TestParseBalance(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"500000", 500000},
		{" 42 ", 42},
		{"-3", -3},
		{"", 0},
		{"n/a", 0},
		{"12.5", 0},
	}
	for _, c := range cases {
		if got := ParseBalance(c.in); got != c.want {
			t.Errorf("ParseBalance(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLicenseRecordState(t *testing.T) {
	t.Run("unclaimed", func(t *testing.T) {
		r := &LicenseRecord{}
		if r.State() != StateUnclaimed {
			t.Fatalf("got %s", r.State())
		}
	})

	t.Run("active", func(t *testing.T) {
		r := &LicenseRecord{Activated: true}
		if r.State() != StateActive {
			t.Fatalf("got %s", r.State())
		}
	})

	t.Run("termination wins over activated", func(t *testing.T) {
		r := &LicenseRecord{Activated: true, Terminated: true}
		if r.State() != StateTerminated {
			t.Fatalf("got %s", r.State())
		}
	})
}
