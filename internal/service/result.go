package service

// Kind classifies the outcome of a state-changing operation. Validation
// kinds are expected user-facing outcomes, not errors; the two infrastructure
// kinds are logged with context and surfaced as a generic failure.
type Kind int

const (
	KindOK Kind = iota
	KindInvalidDate
	KindPastDate
	KindAlreadySet
	KindNotCheckedIn
	KindAlreadyOnBreak
	KindAlreadyDropped
	KindNothingToResume
	KindStoreUnavailable
	KindExternalSinkFailure
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindInvalidDate:
		return "invalid_date"
	case KindPastDate:
		return "past_date"
	case KindAlreadySet:
		return "already_set"
	case KindNotCheckedIn:
		return "not_checked_in"
	case KindAlreadyOnBreak:
		return "already_on_break"
	case KindAlreadyDropped:
		return "already_dropped"
	case KindNothingToResume:
		return "nothing_to_resume"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindExternalSinkFailure:
		return "external_sink_failure"
	default:
		return "unknown"
	}
}

// Result is what every attendance operation returns to its caller: success
// or a classified failure, with a message ready to show the user.
type Result struct {
	OK      bool
	Kind    Kind
	Message string
}

func ok(msg string) Result {
	return Result{OK: true, Kind: KindOK, Message: msg}
}

func fail(kind Kind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}
