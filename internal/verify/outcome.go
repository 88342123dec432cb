package verify

import "errors"

// Outcome classifies the result of an endpoint check.
type Outcome int

const (
	// OutcomeOK means both canaries returned rows.
	OutcomeOK Outcome = iota

	// OutcomeRulesetMisconfigured means the endpoint answered but the
	// inferences are missing.
	OutcomeRulesetMisconfigured

	// OutcomeTransportError covers everything else: unreachable endpoint,
	// timeouts, HTTP errors and unparseable responses.
	OutcomeTransportError
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRulesetMisconfigured:
		return "ruleset_misconfigured"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the tagged result of Check.
type Result struct {
	Outcome Outcome
	Err     error
}

// OK reports whether the endpoint passed.
func (r Result) OK() bool {
	return r.Outcome == OutcomeOK
}

// Classify maps err to an Outcome. A nil error is OutcomeOK.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var ruleset *WrongRulesetError
	if errors.As(err, &ruleset) {
		return OutcomeRulesetMisconfigured
	}
	return OutcomeTransportError
}
