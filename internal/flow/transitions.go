package flow

// Kind says how a transition changes the navigation stack
type Kind int

const (
	// Push opens the target on top of the current screen
	Push Kind = iota
	// Replace swaps the current screen for the target
	Replace
	// Pop returns to the previous screen
	Pop
)

func (k Kind) String() string {
	switch k {
	case Push:
		return "push"
	case Replace:
		return "replace"
	case Pop:
		return "pop"
	default:
		return "unknown"
	}
}

// Transition is one edge of the flow graph. To is empty for Pop edges.
type Transition struct {
	From     Screen
	Event    Event
	To       Screen
	Kind     Kind
	Requires []Param
}

type edgeKey struct {
	from  Screen
	event Event
}

// Transitions is the whole flow graph
var Transitions = []Transition{
	{From: ScreenSplash, Event: EventSplashElapsed, To: ScreenWelcome, Kind: Replace},
	{From: ScreenWelcome, Event: EventEmailAccepted, To: ScreenEnterPassword, Kind: Push, Requires: []Param{ParamEmail}},
	{From: ScreenEnterPassword, Event: EventLoginSucceeded, To: ScreenVerifyAccountCode, Kind: Push, Requires: []Param{ParamMethod, ParamContact}},
	{From: ScreenEnterPassword, Event: EventForgotPassword, To: ScreenResetPassword, Kind: Push},
	{From: ScreenEnterPassword, Event: EventCancel, Kind: Pop},
	{From: ScreenVerifyAccountMethod, Event: EventMethodChosen, To: ScreenSendCodeTo, Kind: Push},
	{From: ScreenVerifyAccountMethod, Event: EventCancel, Kind: Pop},
	{From: ScreenSendCodeTo, Event: EventContactSelected, To: ScreenVerifyAccountCode, Kind: Push, Requires: []Param{ParamMethod, ParamContact}},
	{From: ScreenSendCodeTo, Event: EventCancel, Kind: Pop},
	{From: ScreenVerifyAccountCode, Event: EventCodeSubmitted, To: ScreenFinalVerify, Kind: Push},
	{From: ScreenVerifyAccountCode, Event: EventCancel, Kind: Pop},
	{From: ScreenResetPassword, Event: EventResetSubmitted, Kind: Pop},
	{From: ScreenResetPassword, Event: EventCancel, Kind: Pop},
	{From: ScreenFinalVerify, Event: EventOpenMain, To: ScreenMain, Kind: Replace},
}

var transitionIndex = buildIndex(Transitions)

func buildIndex(transitions []Transition) map[edgeKey]Transition {
	index := make(map[edgeKey]Transition, len(transitions))
	for _, t := range transitions {
		key := edgeKey{from: t.From, event: t.Event}
		if _, dup := index[key]; dup {
			panic("flow: duplicate transition from " + string(t.From) + " on " + string(t.Event))
		}
		index[key] = t
	}
	return index
}

// Lookup returns the edge leaving from on event
func Lookup(from Screen, event Event) (Transition, bool) {
	t, ok := transitionIndex[edgeKey{from: from, event: event}]
	return t, ok
}

// EventsFrom lists the events that lead somewhere from screen, in table order
func EventsFrom(screen Screen) []Event {
	var events []Event
	for _, t := range Transitions {
		if t.From == screen {
			events = append(events, t.Event)
		}
	}
	return events
}
