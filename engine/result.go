package engine

// Status is the terminal state of a Handle call.
type Status string

const (
	StatusSucceeded   Status = "succeeded"
	StatusUnsupported Status = "unsupported"
	StatusExhausted   Status = "exhausted"
	StatusCanceled    Status = "canceled"
)

// Result is the outcome of a Handle call. Only StatusSucceeded carries a payload;
// every other status means no result was produced.
type Result struct {
	Payload  any
	Status   Status
	Type     Type
	Attempts int
	// Err holds the last failure for exhausted and canceled calls
	Err error
}

// OK reports whether the call produced a payload.
func (r Result) OK() bool {
	return r.Status == StatusSucceeded
}

// Text returns the payload as a string when it is one.
func (r Result) Text() (string, bool) {
	s, ok := r.Payload.(string)
	return s, ok && r.OK()
}
