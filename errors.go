package psycsp

// Event is the return code for PacketParser.Step(). Negative values are
// errors and terminal for the current packet; positive values report
// parsing progress.
type Event int8

const (
	// EvErrorEnd: buffer did not terminate with a valid packet delimiter.
	EvErrorEnd Event = -8
	// EvErrorMethod: missing LF after the method.
	EvErrorMethod Event = -7
	// EvErrorModNL: missing LF after a modifier line.
	EvErrorModNL Event = -6
	// EvErrorModLen: non-numeric byte where a modifier length was expected.
	EvErrorModLen Event = -5
	// EvErrorModTab: missing TAB before a modifier value.
	EvErrorModTab Event = -4
	// EvErrorModName: modifier name is empty or malformed.
	EvErrorModName Event = -3
	// EvErrorLength: missing LF after the content length.
	EvErrorLength Event = -2
	// EvError: other grammar violation.
	EvError Event = -1

	// EvInsufficient: more input is needed; resume from RemainingField().
	EvInsufficient Event = 1
	// EvRouting: a routing modifier was parsed in full.
	EvRouting Event = 2
	// EvEntityStart: start of a length-prefixed entity value spanning feeds.
	EvEntityStart Event = 3
	// EvEntityCont: continuation chunk of an entity value.
	EvEntityCont Event = 4
	// EvEntityEnd: last chunk of an entity value.
	EvEntityEnd Event = 5
	// EvEntity: an entity modifier was parsed in full.
	EvEntity Event = 6
	// EvBodyStart: start of a length-prefixed body spanning feeds.
	EvBodyStart Event = 7
	// EvBodyCont: continuation chunk of the body.
	EvBodyCont Event = 8
	// EvBodyEnd: last chunk of the body.
	EvBodyEnd Event = 9
	// EvBody: method and data were parsed in full.
	EvBody Event = 10
	// EvContentStart: start of opaque content (ROUTING_ONLY mode).
	EvContentStart Event = 7
	// EvContentCont: continuation chunk of opaque content.
	EvContentCont Event = 8
	// EvContentEnd: last chunk of opaque content.
	EvContentEnd Event = 9
	// EvContent: opaque content parsed in full (ROUTING_ONLY mode).
	EvContent Event = 10
	// EvComplete: the packet was fully parsed; state resets to RESET.
	EvComplete Event = 11
)

var eventStr = map[Event]string{
	EvErrorEnd:     "error: invalid packet delimiter",
	EvErrorMethod:  "error: missing LF after method",
	EvErrorModNL:   "error: missing LF after modifier",
	EvErrorModLen:  "error: non-numeric modifier length",
	EvErrorModTab:  "error: missing TAB before modifier value",
	EvErrorModName: "error: empty or malformed modifier name",
	EvErrorLength:  "error: missing LF after content length",
	EvError:        "error: grammar violation",
	EvInsufficient: "insufficient data",
	EvRouting:      "routing modifier",
	EvEntityStart:  "entity modifier start",
	EvEntityCont:   "entity modifier continuation",
	EvEntityEnd:    "entity modifier end",
	EvEntity:       "entity modifier",
	EvBodyStart:    "body start",
	EvBodyCont:     "body continuation",
	EvBodyEnd:      "body end",
	EvBody:         "body",
	EvComplete:     "complete",
}

// String implements the Stringer interface.
func (e Event) String() string {
	if s, ok := eventStr[e]; ok {
		return s
	}
	return "unknown event"
}

// IsError returns true if e is a terminal parse error.
func (e Event) IsError() bool {
	return e < 0
}

// ListEvent is the return code for ListParser.Step().
type ListEvent int8

const (
	// LEvErrorDelim: malformed list element delimiter.
	LEvErrorDelim ListEvent = -4
	// LEvErrorLen: non-numeric list element length.
	LEvErrorLen ListEvent = -3
	// LEvErrorType: list grammar mismatch (short vs length-prefixed).
	LEvErrorType ListEvent = -2
	// LEvError: other list grammar violation.
	LEvError ListEvent = -1

	// LEvElem: a list element was parsed in full.
	LEvElem ListEvent = 1
	// LEvEnd: end of the list (end of buffer reached cleanly).
	LEvEnd ListEvent = 2
	// LEvIncomplete: a length-prefixed element is incomplete.
	LEvIncomplete ListEvent = 3
)

var listEventStr = [...]string{
	4 + int(LEvErrorDelim): "error: malformed list delimiter",
	4 + int(LEvErrorLen):   "error: non-numeric list element length",
	4 + int(LEvErrorType):  "error: list type mismatch",
	4 + int(LEvError):      "error: list grammar violation",
	4 + int(LEvElem):       "list element",
	4 + int(LEvEnd):        "list end",
	4 + int(LEvIncomplete): "list element incomplete",
}

// String implements the Stringer interface.
func (e ListEvent) String() string {
	i := 4 + int(e)
	if i < 0 || i >= len(listEventStr) {
		return "unknown list event"
	}
	return listEventStr[i]
}

// IsError returns true if e is a terminal list parse error.
func (e ListEvent) IsError() bool {
	return e < 0
}

// RenderResult is the return code for PacketBuilder.Render and
// ListBuilder.Render.
type RenderResult int8

const (
	// RenderSuccess: the packet/list was rendered in full.
	RenderSuccess RenderResult = 0
	// RenderError: the output buffer is too small.
	RenderError RenderResult = -1
	// RenderErrorModifierNameMissing: a modifier has an empty name.
	RenderErrorModifierNameMissing RenderResult = -2
	// RenderErrorMethodMissing: data is present without a method.
	RenderErrorMethodMissing RenderResult = -3
)

// String implements the Stringer interface.
func (r RenderResult) String() string {
	switch r {
	case RenderSuccess:
		return "success"
	case RenderError:
		return "error: buffer too small"
	case RenderErrorModifierNameMissing:
		return "error: modifier name missing"
	case RenderErrorMethodMissing:
		return "error: method missing"
	default:
		return "unknown render result"
	}
}
