package conversation

// State is the position of a conversation in the sales flow.
type State string

const (
	StateGreeting          State = "GREETING"
	StateDiscovery         State = "DISCOVERY"
	StateRecommendation    State = "RECOMMENDATION"
	StateInterestConfirmed State = "INTEREST_CONFIRMED"
	StateNameCollected     State = "NAME_COLLECTED"
	StateEmailCollected    State = "EMAIL_COLLECTED"
	StatePhoneCollected    State = "PHONE_COLLECTED"
	StateLeadCreated       State = "LEAD_CREATED"
	StateFAQMode           State = "FAQ_MODE"
)

var allStates = []State{
	StateGreeting,
	StateDiscovery,
	StateRecommendation,
	StateInterestConfirmed,
	StateNameCollected,
	StateEmailCollected,
	StatePhoneCollected,
	StateLeadCreated,
	StateFAQMode,
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, v := range allStates {
		if v == s {
			return true
		}
	}
	return false
}

// Collecting reports whether the state belongs to the lead collection flow.
// While collecting, every turn is routed to lead handling.
func (s State) Collecting() bool {
	switch s {
	case StateInterestConfirmed, StateNameCollected, StateEmailCollected, StatePhoneCollected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave the state.
func (s State) Terminal() bool { return s == StateLeadCreated }

func (s State) String() string { return string(s) }

// Event is something that happened during a turn and may move the state.
type Event string

const (
	EventProductsShown    Event = "products_shown"
	EventFAQAnswered      Event = "faq_answered"
	EventInterestDetected Event = "interest_detected"
	EventNameCaptured     Event = "name_captured"
	EventEmailCaptured    Event = "email_captured"
	EventPhoneCaptured    Event = "phone_captured"
	EventLeadCreated      Event = "lead_created"
	EventLeadFailed       Event = "lead_failed"
)

// Transition returns the state reached from s when ev happens.
// Events that do not apply to s leave it unchanged.
func Transition(s State, ev Event) State {
	if s.Terminal() {
		return s
	}

	switch ev {
	case EventProductsShown:
		if s == StateGreeting {
			return StateDiscovery
		}
	case EventInterestDetected:
		return StateInterestConfirmed
	case EventNameCaptured:
		if s == StateInterestConfirmed {
			return StateNameCollected
		}
	case EventEmailCaptured:
		if s == StateNameCollected {
			return StateEmailCollected
		}
	case EventPhoneCaptured:
		if s == StateEmailCollected {
			return StatePhoneCollected
		}
	case EventLeadCreated:
		if s == StatePhoneCollected {
			return StateLeadCreated
		}
	case EventLeadFailed, EventFAQAnswered:
		// CRM failures keep the collected data in PHONE_COLLECTED.
	}
	return s
}
