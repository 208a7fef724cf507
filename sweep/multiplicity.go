package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// Unbounded marks an axis of a Multiplicity as having no cap.
const Unbounded = 0

// Multiplicity is the (M, N) cap pair of §4.C: M caps the number of
// surviving records that may cover any single query-axis position, N does
// the same for the target axis. Unbounded means no cap on that axis.
type Multiplicity struct {
	M, N int
}

// ParseMultiplicity parses an "M:N" cap pair, resolving the Open Question
// in spec.md §9(i). Each side is independently either a positive integer
// or one of the unbounded spellings "inf", "∞" or "unbounded", so "1:1",
// "3:inf", "∞:2", "inf:unbounded" and "3:4" are all accepted. Anything
// else (no colon, zero or negative caps, other words) is rejected.
func ParseMultiplicity(s string) (Multiplicity, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Multiplicity{}, fmt.Errorf("sweep: malformed multiplicity %q, want \"M:N\"", s)
	}
	m, err := parseCap(parts[0])
	if err != nil {
		return Multiplicity{}, fmt.Errorf("sweep: malformed multiplicity %q: %w", s, err)
	}
	n, err := parseCap(parts[1])
	if err != nil {
		return Multiplicity{}, fmt.Errorf("sweep: malformed multiplicity %q: %w", s, err)
	}
	return Multiplicity{M: m, N: n}, nil
}

func parseCap(s string) (int, error) {
	switch s {
	case "inf", "∞", "unbounded":
		return Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("cap %q is neither a recognized unbounded spelling nor a positive integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("cap %d must be positive (use inf/∞/unbounded for no cap)", n)
	}
	return n, nil
}
