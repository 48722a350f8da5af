package util

import (
	"testing"
)

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, " 0.0   B"},
		{99, "99.0   B"},
		{1536, " 1.5 KiB"},
		{100 * 1024, " 0.1 MiB"},
		{98.9 * 1024 * 1024 * 1024, "98.9 GiB"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			got := formatBytes(tc.in)
			if got != tc.want {
				t.Errorf("formatBytes(%v) = %q, want %q", tc.in, got, tc.want)
			}
			if len(got) != 8 {
				t.Errorf("formatBytes(%v) width = %d, want 8", tc.in, len(got))
			}
		})
	}
}

func TestStatsSummary(t *testing.T) {
	var s Stats
	s.AddSent(5)
	s.AddSent(1531)
	s.AddRecv(42)

	want := "Sent: 2 msg ( 1.5 KiB) | Recv: 1 msg (42.0   B)"
	if got := s.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("v=0\r\ns=-\r\n")
	if len(a) != 8 {
		t.Fatalf("Fingerprint length = %d, want 8", len(a))
	}
	if b := Fingerprint("v=0\r\ns=-\r\n"); a != b {
		t.Errorf("Fingerprint not stable: %q vs %q", a, b)
	}
	if c := Fingerprint("v=0\r\ns=x\r\n"); a == c {
		t.Errorf("different blobs share fingerprint %q", a)
	}
	// FNV-1a offset basis for empty input.
	if got := Fingerprint(""); got != "811c9dc5" {
		t.Errorf("Fingerprint(\"\") = %q, want 811c9dc5", got)
	}
}

func TestPionLoggerFactoryScopes(t *testing.T) {
	l := PionLoggerFactory{}.NewLogger("ice")
	if pl, ok := l.(*pionLogger); !ok || pl.scope != "ice" {
		t.Fatalf("NewLogger returned %#v", l)
	}
}
