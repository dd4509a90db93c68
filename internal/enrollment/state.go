package enrollment

import (
	"fmt"
	"strings"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

// Phase is the coarse position of a session in its lifecycle.
type Phase int

const (
	PhaseAwaitingSample Phase = iota
	PhaseComplete
	PhaseCancelled
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseAwaitingSample: "awaiting_sample",
	PhaseComplete:       "complete",
	PhaseCancelled:      "cancelled",
	PhaseFailed:         "failed",
}

// State is a value snapshot of the session state machine. Index is the
// zero-based number of the sample being awaited and is only meaningful in
// PhaseAwaitingSample.
type State struct {
	Phase Phase
	Index int
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Phase == PhaseCancelled || s.Phase == PhaseFailed
}

func (s State) String() string {
	if s.Phase == PhaseAwaitingSample {
		return fmt.Sprintf("%s(%d)", phaseNames[s.Phase], s.Index)
	}
	if name, ok := phaseNames[s.Phase]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(s.Phase))
}

func (s State) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[s.Phase]; !ok {
		return nil, fmt.Errorf("unknown enrollment phase %d", int(s.Phase))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	str := string(text)

	if strings.HasPrefix(str, phaseNames[PhaseAwaitingSample]) {
		var index int
		if _, err := fmt.Sscanf(str, phaseNames[PhaseAwaitingSample]+"(%d)", &index); err != nil {
			return fmt.Errorf("invalid enrollment state %q: %w", str, err)
		}
		if index < 0 || index >= biometric.EnrollmentQuota {
			return fmt.Errorf("invalid enrollment state %q: index out of range", str)
		}
		*s = State{Phase: PhaseAwaitingSample, Index: index}
		return nil
	}

	for phase, name := range phaseNames {
		if phase != PhaseAwaitingSample && name == str {
			*s = State{Phase: phase}
			return nil
		}
	}
	return fmt.Errorf("invalid enrollment state %q", str)
}
