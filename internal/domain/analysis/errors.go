package analysis

import (
	"errors"
	"fmt"
)

// ErrIncomplete means a required sub-capability never produced usable output.
var ErrIncomplete = errors.New("analysis incomplete")

// TripwireKind enum
type TripwireKind string

const (
	TripwireInput  TripwireKind = "input"
	TripwireOutput TripwireKind = "output"
)

// TripwireError aborts the pipeline. Verdict holds the internal reasoning and
// must not be sent to clients.
type TripwireError struct {
	Kind    TripwireKind
	Verdict GuardrailVerdict
}

func (e *TripwireError) Error() string {
	return fmt.Sprintf("guardrail tripwire (%s): %s", e.Kind, e.Verdict.Reasoning)
}

// IsTripwire reports whether err is a tripwire of the given kind.
func IsTripwire(err error, kind TripwireKind) bool {
	var t *TripwireError
	return errors.As(err, &t) && t.Kind == kind
}
