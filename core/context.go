package core

import (
	"fmt"
)

// Phase is one of the fixed lifecycle states of an operation. Transitions
// are strictly forward except Rewind, which resets to PhaseBeforeTransmit.
type Phase int

const (
	PhaseBeforeSerialization Phase = iota
	PhaseSerialization
	PhaseBeforeTransmit
	PhaseTransmit
	PhaseBeforeDeserialization
	PhaseDeserialization
	PhaseAfterDeserialization
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeSerialization:
		return "before serialization"
	case PhaseSerialization:
		return "serialization"
	case PhaseBeforeTransmit:
		return "before transmit"
	case PhaseTransmit:
		return "transmit"
	case PhaseBeforeDeserialization:
		return "before deserialization"
	case PhaseDeserialization:
		return "deserialization"
	case PhaseAfterDeserialization:
		return "after deserialization"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// RewindResult reports the outcome of attempting to restore a context to
// its pre-attempt checkpoint.
type RewindResult int

const (
	// RewindImpossible means no checkpoint exists for an already tainted
	// context; the request cannot be retried.
	RewindImpossible RewindResult = iota
	// RewindUnnecessary means the request has not been touched yet; no
	// restore was needed.
	RewindUnnecessary
	// RewindOccurred means the request was restored from the checkpoint.
	RewindOccurred
)

func (r RewindResult) String() string {
	switch r {
	case RewindImpossible:
		return "impossible"
	case RewindUnnecessary:
		return "unnecessary"
	case RewindOccurred:
		return "occurred"
	}
	return fmt.Sprintf("rewind(%d)", int(r))
}

// InterceptorContext is the per-invocation state container. Different data
// is available depending on the current phase: only the input before
// serialization, the wire request up through transmit, the raw response
// from transmit onward, and the parsed output (or recorded failure) after
// deserialization. The context is exclusively owned by one invocation and
// needs no locking.
type InterceptorContext struct {
	input      Input
	inputTaken bool
	request    *Request
	response   *Response
	output     Output
	failure    error
	resolved   bool
	phase      Phase
	tainted    bool
	checkpoint *Request
}

// NewInterceptorContext creates a context in the "before serialization"
// phase holding the operation input.
func NewInterceptorContext(input Input) *InterceptorContext {
	return &InterceptorContext{input: input, phase: PhaseBeforeSerialization}
}

func (c *InterceptorContext) Phase() Phase {
	return c.phase
}

// Input returns the operation input, if it has not been taken yet.
func (c *InterceptorContext) Input() (Input, bool) {
	if c.inputTaken {
		return nil, false
	}
	return c.input, true
}

// SetInput replaces the operation input. It is only legal before the input
// has been taken by serialization.
func (c *InterceptorContext) SetInput(input Input) error {
	if c.inputTaken {
		return programmingError("input cannot be replaced after serialization has taken it")
	}
	c.input = input
	return nil
}

// TakeInput hands ownership of the input to serialization. The input can be
// taken at most once.
func (c *InterceptorContext) TakeInput() (Input, error) {
	if c.inputTaken {
		return nil, programmingError("operation input already taken")
	}
	c.inputTaken = true
	input := c.input
	c.input = nil
	return input, nil
}

func (c *InterceptorContext) SetRequest(req *Request) {
	c.request = req
}

func (c *InterceptorContext) Request() *Request {
	return c.request
}

// TakeRequest hands ownership of the request to the connector.
func (c *InterceptorContext) TakeRequest() *Request {
	req := c.request
	c.request = nil
	return req
}

func (c *InterceptorContext) SetResponse(resp *Response) {
	c.response = resp
}

func (c *InterceptorContext) Response() *Response {
	return c.response
}

// SetOutput records a successful parse result, clearing any earlier
// recorded failure.
func (c *InterceptorContext) SetOutput(output Output) {
	c.output = output
	c.failure = nil
	c.resolved = true
}

// Output returns the parsed output. The second return is false until
// deserialization succeeds.
func (c *InterceptorContext) Output() (Output, bool) {
	if !c.resolved || c.failure != nil {
		return nil, false
	}
	return c.output, true
}

// Err returns the currently recorded failure, if any.
func (c *InterceptorContext) Err() error {
	return c.failure
}

// IsFailed reports whether the context currently holds a failure.
func (c *InterceptorContext) IsFailed() bool {
	return c.failure != nil
}

// Fail records a failure, replacing any previously recorded output or
// error. The discarded error, if any, is returned so the caller can emit a
// diagnostic; last write wins.
func (c *InterceptorContext) Fail(err error) (discarded error) {
	if err == nil {
		return nil
	}
	discarded = c.failure
	c.output = nil
	c.failure = err
	c.resolved = true
	return discarded
}

// EnterSerializationPhase advances to the serialization phase.
func (c *InterceptorContext) EnterSerializationPhase() error {
	if c.phase != PhaseBeforeSerialization {
		return phaseError(c.phase, PhaseSerialization)
	}
	c.phase = PhaseSerialization
	return nil
}

// EnterBeforeTransmitPhase advances to the before-transmit phase. The input
// must have been taken and the request set.
func (c *InterceptorContext) EnterBeforeTransmitPhase() error {
	if c.phase != PhaseSerialization {
		return phaseError(c.phase, PhaseBeforeTransmit)
	}
	if !c.inputTaken {
		return programmingError("input must be taken before entering the 'before transmit' phase")
	}
	if c.request == nil {
		return programmingError("request must be set before entering the 'before transmit' phase")
	}
	c.phase = PhaseBeforeTransmit
	return nil
}

// EnterTransmitPhase advances to the transmit phase.
func (c *InterceptorContext) EnterTransmitPhase() error {
	if c.phase != PhaseBeforeTransmit {
		return phaseError(c.phase, PhaseTransmit)
	}
	c.phase = PhaseTransmit
	return nil
}

// EnterBeforeDeserializationPhase advances to the before-deserialization
// phase. The request must have been taken and the response set.
func (c *InterceptorContext) EnterBeforeDeserializationPhase() error {
	if c.phase != PhaseTransmit {
		return phaseError(c.phase, PhaseBeforeDeserialization)
	}
	if c.request != nil {
		return programmingError("request must be taken before entering the 'before deserialization' phase")
	}
	if c.response == nil {
		return programmingError("response must be set before entering the 'before deserialization' phase")
	}
	c.phase = PhaseBeforeDeserialization
	return nil
}

// EnterDeserializationPhase advances to the deserialization phase.
func (c *InterceptorContext) EnterDeserializationPhase() error {
	if c.phase != PhaseBeforeDeserialization {
		return phaseError(c.phase, PhaseDeserialization)
	}
	c.phase = PhaseDeserialization
	return nil
}

// EnterAfterDeserializationPhase advances to the after-deserialization
// phase. An output or failure must already be recorded.
func (c *InterceptorContext) EnterAfterDeserializationPhase() error {
	if c.phase != PhaseDeserialization {
		return phaseError(c.phase, PhaseAfterDeserialization)
	}
	if !c.resolved {
		return programmingError("output or failure must be set before entering the 'after deserialization' phase")
	}
	c.phase = PhaseAfterDeserialization
	return nil
}

// SaveCheckpoint stores a clone of the request for later rewinds. It is
// called exactly once, right before the retry loop begins; a body that
// cannot be replayed leaves no checkpoint, making later rewinds impossible.
func (c *InterceptorContext) SaveCheckpoint() {
	c.checkpoint = c.request.TryClone()
}

// Rewind restores the context to the saved checkpoint so a fresh attempt
// can run. The first call on a context merely marks it tainted and returns
// RewindUnnecessary; later calls restore the checkpoint, returning
// RewindImpossible when none was saved.
func (c *InterceptorContext) Rewind() RewindResult {
	if c.checkpoint == nil && c.tainted {
		return RewindImpossible
	}
	if !c.tainted {
		// The request has not been touched yet, so nothing needs to be
		// restored.
		c.tainted = true
		return RewindUnnecessary
	}
	c.phase = PhaseBeforeTransmit
	c.request = c.checkpoint.TryClone()
	c.response = nil
	c.output = nil
	c.failure = nil
	c.resolved = false
	return RewindOccurred
}

func phaseError(current Phase, target Phase) error {
	return programmingError(fmt.Sprintf("cannot enter the '%s' phase from the '%s' phase", target, current))
}
