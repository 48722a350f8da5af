package payload

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSample(t *testing.T) {
	sum, err := Validate(sampleSDP)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if sum.Media != 1 {
		t.Errorf("Media = %d, want 1", sum.Media)
	}
	if sum.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", sum.Candidates)
	}
}

func TestValidateNormalizedSample(t *testing.T) {
	if _, err := Validate(Normalize(sampleSDP, "203.0.113.9")); err != nil {
		t.Fatalf("normalized blob no longer parses: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", " \r\n\t"},
		{"not sdp", "hello there"},
		{"session only", "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.text)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("Validate error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestAppendCandidates(t *testing.T) {
	base := strings.Replace(sampleSDP,
		"a=candidate:2889402744 1 udp 1694498815 36.7.12.9 40021 typ srflx raddr 0.0.0.0 rport 51234\r\n", "", 1)

	got := AppendCandidates(base, []string{
		"candidate:1318155280 1 udp 2130706431 192.168.1.20 51234 typ host", // already present
		"candidate:2889402744 1 udp 1694498815 36.7.12.9 40021 typ srflx raddr 0.0.0.0 rport 51234",
		"candidate:2889402744 1 udp 1694498815 36.7.12.9 40021 typ srflx raddr 0.0.0.0 rport 51234", // duplicate
	})

	if n := strings.Count(got, "a=candidate:1318155280 "); n != 1 {
		t.Errorf("host candidate appears %d times, want 1", n)
	}
	if n := strings.Count(got, "a=candidate:2889402744 "); n != 1 {
		t.Errorf("srflx candidate appears %d times, want 1", n)
	}
	if !strings.HasSuffix(got, "rport 51234\r\n") {
		t.Errorf("appended line not terminated with CRLF: %q", got[len(got)-20:])
	}
	if !strings.HasPrefix(got, base) {
		t.Error("original description was modified")
	}

	sum, err := Validate(got)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if sum.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", sum.Candidates)
	}
}

func TestAppendCandidatesTerminatesLastLine(t *testing.T) {
	got := AppendCandidates("v=0\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel", []string{"candidate:1 1 udp 1 10.0.0.1 9 typ host"})
	want := "v=0\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\na=candidate:1 1 udp 1 10.0.0.1 9 typ host\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppendCandidatesNone(t *testing.T) {
	if got := AppendCandidates(sampleSDP, nil); got != sampleSDP {
		t.Error("description changed without candidates")
	}
}
