package psycsp

// ListType selects the inner list grammar a ListParser decodes.
type ListType uint8

const (
	// ListUnset: no grammar chosen yet.
	ListUnset ListType = iota
	// ListShort: "('|' elem)*", elements contain neither '|' nor LF.
	ListShort
	// ListLengthPrefixed: "len SP elem ('|' len SP elem)*".
	ListLengthPrefixed
)

// internal list parser states
const (
	lpInit uint8 = iota // look for element start (or end of list)
	lpLen               // scanning decimal length digits
	lpLenSP             // expect SP after the length digits
	lpElem              // scanning a length-prefixed element body
	lpElemShort         // scanning a short-form element (delimited by '|')
)

// ListParser is a resumable decoder for the PSYC inner list grammar.
// Like PacketParser it owns no heap memory: every Field it
// returns aliases the buffer passed to the most recent Feed call.
//
// The short-form grammar prefixes every element with '|', including the
// first ("|elem)*"): this matches ComputeListLength's "1 + elem.length per
// element" accounting, which only
// balances against the wire format if each element, not just each
// separator, costs one delimiter byte. The length-prefixed grammar has no
// such leading delimiter on its first element, since the length prefix
// itself is unambiguous without one.
type ListParser struct {
	buf          []byte
	cursor       int
	resumeCursor int
	listType     ListType
	state        uint8
	started      bool

	elemStart  int
	elemLength int
}

// Init initializes a ListParser for the given grammar.
func (lp *ListParser) Init(t ListType) {
	*lp = ListParser{listType: t}
}

// Reset re-initializes the parser, keeping its configured list type.
func (lp *ListParser) Reset() {
	t := lp.listType
	*lp = ListParser{listType: t}
}

// Feed installs a new buffer to parse and resets the cursor to zero. The
// caller is responsible for prepending any RemainingField() tail from a
// previous LEvIncomplete before the new data, exactly as PacketParser.Feed
// expects.
func (lp *ListParser) Feed(buf []byte) {
	lp.buf = buf
	lp.cursor = 0
	lp.resumeCursor = 0
	lp.state = lpInit
}

// Cursor returns the current parse position in the most recently fed
// buffer.
func (lp *ListParser) Cursor() int { return lp.cursor }

// RemainingLength returns the number of unconsumed bytes available for
// resumption.
func (lp *ListParser) RemainingLength() int { return len(lp.buf) - lp.resumeCursor }

// RemainingField returns the unconsumed tail of the buffer, to be
// preserved and prepended to the next Feed call after LEvIncomplete.
func (lp *ListParser) RemainingField() []byte { return lp.buf[lp.resumeCursor:] }

// Step decodes the next list element. It returns LEvElem with elem set to
// the element's Field on progress, LEvEnd when the buffer is exhausted at
// an element boundary, LEvIncomplete when a length-prefixed element's
// length or body does not fully fit the fed buffer (call Feed again with
// RemainingField() plus more data), or a negative LEvError* code on a
// grammar violation.
func (lp *ListParser) Step() (ListEvent, Field) {
	buf := lp.buf
	i := lp.cursor

	if lp.listType == ListUnset {
		return LEvErrorType, Field{}
	}

	for {
		switch lp.state {
		case lpInit:
			lp.resumeCursor = i
			if i >= len(buf) {
				lp.cursor = i
				return LEvEnd, Field{}
			}
			if lp.listType == ListShort || lp.started {
				if buf[i] != '|' {
					lp.cursor = i
					return LEvErrorDelim, Field{}
				}
				i++
				// resumeCursor stays at the '|': an LEvIncomplete further
				// into this element replays the whole "|len SP elem" unit,
				// since Feed restarts Step at lpInit.
			}
			if lp.listType == ListLengthPrefixed {
				lp.state = lpLen
			} else {
				lp.state = lpElemShort
				lp.elemStart = i
			}
			continue

		case lpLen:
			j := scanDigits(buf, i)
			if j >= len(buf) {
				lp.cursor = lp.resumeCursor
				return LEvIncomplete, Field{}
			}
			if j == i {
				lp.cursor = i
				return LEvErrorLen, Field{}
			}
			n, ok := DecodeUint(buf[i:j])
			if !ok {
				lp.cursor = i
				return LEvErrorLen, Field{}
			}
			lp.elemLength = int(n)
			i = j
			lp.state = lpLenSP
			continue

		case lpLenSP:
			if i >= len(buf) {
				lp.cursor = lp.resumeCursor
				return LEvIncomplete, Field{}
			}
			if buf[i] != ' ' {
				lp.cursor = i
				return LEvErrorDelim, Field{}
			}
			i++
			lp.elemStart = i
			lp.state = lpElem
			continue

		case lpElem:
			end := lp.elemStart + lp.elemLength
			if end > len(buf) {
				lp.cursor = lp.resumeCursor
				return LEvIncomplete, Field{}
			}
			var f Field
			f.Set(lp.elemStart, end)
			i = end
			lp.cursor = i
			lp.started = true
			lp.state = lpInit
			return LEvElem, f

		case lpElemShort:
			j := i
			for j < len(buf) && buf[j] != '|' {
				if buf[j] == '\n' {
					lp.cursor = j
					return LEvErrorDelim, Field{}
				}
				j++
			}
			var f Field
			f.Set(lp.elemStart, j)
			i = j
			lp.cursor = i
			lp.started = true
			lp.state = lpInit
			return LEvElem, f
		}
	}
}
