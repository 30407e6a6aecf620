package llm

// state of one lesson's generation loop.
type state int

const (
	stateSending state = iota
	stateAwaitingRepair
	stateSucceeded
	stateExhausted
	stateAuthFailed
)

func (s state) String() string {
	switch s {
	case stateSending:
		return "sending"
	case stateAwaitingRepair:
		return "awaiting_repair"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	case stateAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

func (s state) terminal() bool {
	return s == stateSucceeded || s == stateExhausted || s == stateAuthFailed
}

// outcome of a single attempt.
type outcome int

const (
	// outcomeTransportFailure covers network errors, non-2xx answers other
	// than 401 and envelopes without a message.
	outcomeTransportFailure outcome = iota
	outcomeUnauthorized
	outcomeMalformedContent
	outcomeDecoded
)

func (o outcome) String() string {
	switch o {
	case outcomeTransportFailure:
		return "transport_failure"
	case outcomeUnauthorized:
		return "unauthorized"
	case outcomeMalformedContent:
		return "malformed_content"
	case outcomeDecoded:
		return "decoded"
	default:
		return "unknown"
	}
}

// next returns the state after attempt number attempt (1-based) ended with o.
// Terminal states never change.
func next(s state, o outcome, attempt, maxAttempts int) state {
	if s.terminal() {
		return s
	}

	switch o {
	case outcomeDecoded:
		return stateSucceeded
	case outcomeUnauthorized:
		return stateAuthFailed
	}

	if attempt >= maxAttempts {
		return stateExhausted
	}
	if o == outcomeMalformedContent {
		return stateAwaitingRepair
	}
	// Transport failures resend the same prompt, repair feedback included.
	return s
}

// machine tracks one generation loop: current state, attempt count and the
// prompt for the next attempt.
type machine struct {
	state       state
	attempt     int
	maxAttempts int
	basePrompt  string
	prompt      string
	lastErr     error
}

func newMachine(prompt string, maxAttempts int) *machine {
	return &machine{
		state:       stateSending,
		maxAttempts: maxAttempts,
		basePrompt:  prompt,
		prompt:      prompt,
	}
}

// record applies the result of the attempt that just finished. content and
// err are the raw model answer and the failure, if any.
func (m *machine) record(o outcome, content string, err error) state {
	m.attempt++
	m.lastErr = err
	m.state = next(m.state, o, m.attempt, m.maxAttempts)

	if m.state == stateAwaitingRepair && o == outcomeMalformedContent {
		m.prompt = RepairPrompt(m.basePrompt, err.Error(), content)
	}
	return m.state
}
