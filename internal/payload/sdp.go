package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/sdp/v3"
)

// ErrMalformed is returned by Validate for text that is not a usable
// session description.
var ErrMalformed = errors.New("payload: malformed session description")

// Summary describes a validated blob.
type Summary struct {
	Media      int // number of m= sections
	Candidates int // number of candidate attributes across all sections
}

// Validate checks that text parses as SDP and carries at least one media
// section. It does not judge whether the engine will accept the parameters.
func Validate(text string) (Summary, error) {
	if strings.TrimSpace(text) == "" {
		return Summary{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(text)); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(desc.MediaDescriptions) == 0 {
		return Summary{}, fmt.Errorf("%w: no media sections", ErrMalformed)
	}

	sum := Summary{Media: len(desc.MediaDescriptions)}
	for _, attr := range desc.Attributes {
		if attr.Key == "candidate" {
			sum.Candidates++
		}
	}
	for _, md := range desc.MediaDescriptions {
		for _, attr := range md.Attributes {
			if attr.Key == "candidate" {
				sum.Candidates++
			}
		}
	}
	return sum, nil
}

// AppendCandidates appends one a= line per candidate that the description
// does not already carry. candidates are in the "candidate:..." form used by
// ICECandidateInit. The description's own line ending is reused.
func AppendCandidates(desc string, candidates []string) string {
	if len(candidates) == 0 {
		return desc
	}

	eol := "\n"
	if strings.Contains(desc, "\r\n") {
		eol = "\r\n"
	}

	present := make(map[string]struct{})
	for _, line := range strings.Split(desc, "\n") {
		present[strings.TrimSuffix(line, "\r")] = struct{}{}
	}

	var b strings.Builder
	b.WriteString(desc)
	if desc != "" && !strings.HasSuffix(desc, "\n") {
		b.WriteString(eol)
	}
	for _, c := range candidates {
		line := "a=" + c
		if _, ok := present[line]; ok {
			continue
		}
		present[line] = struct{}{}
		b.WriteString(line)
		b.WriteString(eol)
	}
	return b.String()
}
