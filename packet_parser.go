package psycsp

// ParserFlags selects PacketParser parsing modes.
type ParserFlags uint8

const (
	// FlagRoutingOnly: content is not decomposed into entity modifiers,
	// method and data -- it is handed back as opaque bytes via the
	// CONTENT/CONTENT_START/CONTENT_CONT/CONTENT_END events.
	FlagRoutingOnly ParserFlags = 1 << iota
	// FlagStartAtContent: Feed installs its buffer with content_length
	// already set to the buffer's length (known), and positions parsing
	// directly at the content phase, skipping routing/length entirely.
	FlagStartAtContent
)

// internal parser phases
const (
	pReset uint8 = iota
	pRouting
	pLength
	pEntity // entity-modifier dispatch, or opaque content start if FlagRoutingOnly
	pValueChunk
	pPostLF
	pMethod
	pDataDecide
	pDataScan
	pContentScan
	pEnd
)

// chunkTarget identifies which long value pValueChunk/pPostLF is currently
// delivering, so the right event codes and follow-up phase are used.
type chunkTarget uint8

const (
	chunkNone chunkTarget = iota
	chunkEntity
	chunkBody
	chunkContent
)

// PacketParser is the resumable streaming state machine that decodes a
// PSYC packet from an append-only byte stream. It owns no heap memory:
// every Field it hands back through Step aliases the buffer most recently
// passed to Feed and is invalidated by the next Feed call.
type PacketParser struct {
	buf          []byte
	cursor       int
	resumeCursor int
	flags        ParserFlags
	part         uint8

	contentParsed      int
	contentLength      int
	contentLengthKnown bool

	// in-flight long-value delivery (NEED_LENGTH entity/data value, or
	// opaque content in FlagRoutingOnly mode, spanning more than one Feed)
	chunkWhat   chunkTarget
	chunkParsed int
	chunkLength int
	afterLF     uint8 // phase to resume at once a pending single LF is seen

	entitySeen bool // at least one entity modifier parsed in this content

	lastModFlag ModifierFlag

	methodField Field
}

// Init initializes a PacketParser with the given flags.
func (p *PacketParser) Init(flags ParserFlags) {
	*p = PacketParser{flags: flags}
}

// Feed installs a new buffer and resets the cursor to zero. Parsing state
// accumulated across previous Feed calls for the packet in progress (part,
// content accounting, in-flight chunk delivery) is preserved -- only the
// buffer and cursor change -- unless FlagStartAtContent is set, in which
// case Feed also restarts content parsing as that flag describes. The caller is responsible for prepending the
// tail returned by RemainingField() from the previous step to any new
// bytes before calling Feed again.
func (p *PacketParser) Feed(buf []byte) {
	p.buf = buf
	p.cursor = 0
	p.resumeCursor = 0
	if p.flags&FlagStartAtContent != 0 {
		p.contentLength = len(buf)
		p.contentLengthKnown = true
		p.contentParsed = 0
		p.entitySeen = false
		p.part = pEntity
	}
}

// Cursor returns the current parse position in the most recently fed buffer.
func (p *PacketParser) Cursor() int { return p.cursor }

// RemainingLength returns the number of unconsumed bytes available for
// resumption.
func (p *PacketParser) RemainingLength() int { return len(p.buf) - p.resumeCursor }

// RemainingField returns the unconsumed tail of the most recently fed
// buffer, to be preserved and prepended to the next Feed call after an
// EvInsufficient result.
func (p *PacketParser) RemainingField() []byte { return p.buf[p.resumeCursor:] }

// ContentLength returns the packet's content length, if known.
func (p *PacketParser) ContentLength() int { return p.contentLength }

// ContentLengthKnown reports whether an explicit content length was parsed.
func (p *PacketParser) ContentLengthKnown() bool { return p.contentLengthKnown }

// LastModifierFlag returns the wire framing of the most recently
// delivered routing or entity modifier: ModNeedLength if its value
// carried an explicit length prefix, ModNoLength otherwise. The flag is
// not re-inferable from the value alone (a short value may still have
// been length-prefixed, e.g. an explicit zero length), so it is kept
// here for callers that rebuild a Packet from parse events.
func (p *PacketParser) LastModifierFlag() ModifierFlag { return p.lastModFlag }

// ValueLength returns the declared length of the value or content chunk
// currently being delivered across feeds, if any.
func (p *PacketParser) ValueLength() int { return p.chunkLength }

// ValueLengthKnown reports whether a long value is currently being
// delivered via START/CONT/END events.
func (p *PacketParser) ValueLengthKnown() bool { return p.chunkWhat != chunkNone }

// startChunk begins delivering a long value/content across feeds and
// returns the first (START) event using whatever bytes are already
// available, or delivers it whole if it already fits.
func (p *PacketParser) startChunk(what chunkTarget, oper byte, name Field, valStart, length int) (Event, byte, Field, Field) {
	buf := p.buf
	avail := len(buf) - valStart
	if avail >= length {
		end := valStart + length
		var v Field
		v.Set(valStart, end)
		p.cursor = end
		p.resumeCursor = end
		switch what {
		case chunkEntity:
			p.afterLF = pEntity
			p.part = pPostLF
			return EvEntity, oper, name, v
		case chunkBody:
			p.part = pPostLF
			p.afterLF = pEnd
			return EvBody, 0, p.methodField, v
		case chunkContent:
			p.part = pEnd // raw mode: no separate LF budgeted, see packet_builder.go
			return EvContent, 0, Field{}, v
		}
	}
	var v Field
	v.Set(valStart, len(buf))
	p.chunkWhat = what
	p.chunkParsed = avail
	p.chunkLength = length
	p.cursor = len(buf)
	p.resumeCursor = len(buf)
	p.part = pValueChunk
	switch what {
	case chunkEntity:
		return EvEntityStart, oper, name, v
	case chunkBody:
		return EvBodyStart, 0, p.methodField, v
	case chunkContent:
		return EvContentStart, 0, Field{}, v
	}
	return EvError, 0, Field{}, Field{}
}

// Step decodes the next packet element. It is non-blocking
// and resumable: on EvInsufficient the caller must preserve
// RemainingField() and prepend it to the next Feed call.
func (p *PacketParser) Step() (Event, byte, Field, Field) {
	buf := p.buf
	i := p.cursor

	for {
		switch p.part {
		case pReset:
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			p.part = pRouting
			continue

		case pRouting:
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[i] == '|' {
				if i+1 >= len(buf) {
					p.cursor = i
					return EvInsufficient, 0, Field{}, Field{}
				}
				if buf[i+1] != '\n' {
					p.cursor = i
					return EvErrorEnd, 0, Field{}, Field{}
				}
				i += 2
				p.cursor = i
				p.part = pReset
				return EvComplete, 0, Field{}, Field{}
			}
			if buf[i] == '\n' || (buf[i] >= '0' && buf[i] <= '9') {
				// End of the routing header: a length line, "digits? LF".
				// With no digits it is the bare separator line of the
				// short form; with digits it carries the content length
				// and doubles as the separator.
				p.contentParsed = 0
				p.entitySeen = false
				p.part = pLength
				continue
			}
			next, oper, name, flag, length, ev, ok := parseModHead(buf, i)
			if !ok {
				p.cursor = i
				return ev, 0, Field{}, Field{}
			}
			i = next
			valStart := i
			if flag == ModNeedLength {
				end := valStart + length
				if end >= len(buf) {
					p.cursor = p.resumeCursor
					return EvInsufficient, 0, Field{}, Field{}
				}
				if buf[end] != '\n' {
					p.cursor = end
					return EvErrorModNL, 0, Field{}, Field{}
				}
				var value Field
				value.Set(valStart, end)
				i = end + 1
				p.cursor = i
				p.lastModFlag = ModNeedLength
				return EvRouting, oper, name, value
			}
			j := valStart
			for j < len(buf) && buf[j] != '\n' {
				j++
			}
			if j >= len(buf) {
				p.cursor = p.resumeCursor
				return EvInsufficient, 0, Field{}, Field{}
			}
			var value Field
			value.Set(valStart, j)
			i = j + 1
			p.cursor = i
			p.lastModFlag = ModNoLength
			return EvRouting, oper, name, value

		case pLength:
			p.resumeCursor = i
			digStart := i
			j := scanDigits(buf, i)
			if j >= len(buf) {
				p.cursor = digStart
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[j] != '\n' {
				p.cursor = j
				return EvErrorLength, 0, Field{}, Field{}
			}
			if j > digStart {
				n, _ := DecodeUint(buf[digStart:j])
				p.contentLength = int(n)
				p.contentLengthKnown = true
			} else {
				p.contentLengthKnown = false
			}
			i = j + 1
			p.part = pEntity
			continue

		case pEntity:
			if p.flags&FlagRoutingOnly != 0 {
				if p.contentLengthKnown {
					return p.startChunk(chunkContent, 0, Field{}, i, p.contentLength)
				}
				p.part = pContentScan
				continue
			}
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[i] == '\n' && p.entitySeen {
				// Separator between the entity-modifier run and the method
				// line. Only emitted when at least one entity modifier
				// precedes it; with zero entities a leading LF is
				// the empty method line's own terminator and belongs to
				// pMethod instead.
				i++
				p.contentParsed++
				p.part = pMethod
				continue
			}
			if !IsOperator(buf[i]) {
				// This byte starts the method line directly, with no
				// separating LF to consume.
				p.part = pMethod
				continue
			}
			next, oper, name, flag, length, ev, ok := parseModHead(buf, i)
			if !ok {
				p.cursor = i
				return ev, 0, Field{}, Field{}
			}
			headLen := next - i
			i = next
			valStart := i
			if flag == ModNeedLength {
				p.entitySeen = true
				p.lastModFlag = ModNeedLength
				p.contentParsed += headLen + length
				return p.startChunk(chunkEntity, oper, name, valStart, length)
			}
			j := valStart
			for j < len(buf) && buf[j] != '\n' {
				j++
			}
			if j >= len(buf) {
				p.cursor = p.resumeCursor
				return EvInsufficient, 0, Field{}, Field{}
			}
			var value Field
			value.Set(valStart, j)
			i = j + 1
			p.entitySeen = true
			p.lastModFlag = ModNoLength
			p.contentParsed += headLen + (j - valStart) + 1
			p.cursor = i
			return EvEntity, oper, name, value

		case pValueChunk:
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			remaining := p.chunkLength - p.chunkParsed
			avail := len(buf) - i
			n := avail
			if n > remaining {
				n = remaining
			}
			end := i + n
			var v Field
			v.Set(i, end)
			p.chunkParsed += n
			i = end
			p.cursor = i
			p.resumeCursor = i
			done := p.chunkParsed >= p.chunkLength
			what := p.chunkWhat
			if done {
				p.chunkWhat = chunkNone
				switch what {
				case chunkEntity:
					p.afterLF = pEntity
					p.part = pPostLF
					return EvEntityEnd, 0, Field{}, v
				case chunkBody:
					p.afterLF = pEnd
					p.part = pPostLF
					return EvBodyEnd, 0, Field{}, v
				case chunkContent:
					p.part = pEnd
					return EvContentEnd, 0, Field{}, v
				}
			}
			switch what {
			case chunkEntity:
				return EvEntityCont, 0, Field{}, v
			case chunkBody:
				return EvBodyCont, 0, Field{}, v
			case chunkContent:
				return EvContentCont, 0, Field{}, v
			}
			return EvError, 0, Field{}, Field{}

		case pPostLF:
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[i] != '\n' {
				p.cursor = i
				return EvErrorModNL, 0, Field{}, Field{}
			}
			i++
			if p.afterLF == pEntity {
				p.contentParsed++
			}
			p.cursor = i
			p.resumeCursor = i
			p.part = p.afterLF
			continue

		case pMethod:
			p.resumeCursor = i
			j := i
			for j < len(buf) && buf[j] != '\n' {
				j++
			}
			if p.contentLengthKnown && j-i >= p.contentLength-p.contentParsed {
				// The method line's LF has to fall within the declared
				// content length; scanning that many bytes without one is
				// a framing error, not a truncated buffer.
				p.cursor = i
				return EvErrorMethod, 0, Field{}, Field{}
			}
			if j >= len(buf) {
				p.cursor = p.resumeCursor
				return EvInsufficient, 0, Field{}, Field{}
			}
			p.methodField.Set(i, j)
			i = j + 1
			p.contentParsed += (j - p.resumeCursor) + 1
			p.cursor = i
			p.part = pDataDecide
			continue

		case pDataDecide:
			if !p.contentLengthKnown {
				p.part = pDataScan
				continue
			}
			remainder := p.contentLength - p.contentParsed
			if remainder < 0 {
				// Declared content_length too small to hold what was
				// already consumed (entity modifiers + method line): the
				// method's LF fell outside the content bounds.
				p.cursor = i
				return EvErrorMethod, 0, Field{}, Field{}
			}
			if remainder == 0 {
				p.cursor = i
				p.part = pEnd
				return EvBody, 0, p.methodField, Field{}
			}
			return p.startChunk(chunkBody, 0, Field{}, i, remainder-1)

		case pDataScan:
			start := i
			k, found := scanToTerminator(buf, start)
			if !found {
				// Replay the whole method line plus data run on the next
				// feed (resumeCursor still marks the method line's start):
				// the BODY event has to hand back a method slice valid in
				// the buffer it is reported against.
				p.cursor = p.resumeCursor
				p.part = pMethod
				return EvInsufficient, 0, Field{}, Field{}
			}
			var data Field
			if k == start {
				// empty data run: the terminator follows the method's LF
				// directly, so there is no data LF to strip
				data.Set(start, start)
			} else {
				data.Set(start, k-1) // k-1 is the data run's trailing LF
			}
			i = k
			p.cursor = i
			p.part = pEnd
			return EvBody, 0, p.methodField, data

		case pContentScan:
			start := i
			k, found := scanToTerminator(buf, start)
			if !found {
				p.cursor = start
				p.resumeCursor = start
				return EvInsufficient, 0, Field{}, Field{}
			}
			// Opaque content keeps its trailing LF: it is part of the
			// content section (a method or data line's own terminator),
			// unlike a data *value*, which excludes it. Re-rendering the
			// slice in raw-content mode reproduces the packet byte for
			// byte.
			var content Field
			content.Set(start, k)
			i = k
			p.cursor = i
			p.part = pEnd
			return EvContent, 0, Field{}, content

		case pEnd:
			p.resumeCursor = i
			if i >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[i] != '|' {
				p.cursor = i
				return EvErrorEnd, 0, Field{}, Field{}
			}
			if i+1 >= len(buf) {
				p.cursor = i
				return EvInsufficient, 0, Field{}, Field{}
			}
			if buf[i+1] != '\n' {
				p.cursor = i
				return EvErrorEnd, 0, Field{}, Field{}
			}
			i += 2
			p.cursor = i
			p.part = pReset
			return EvComplete, 0, Field{}, Field{}

		default:
			p.cursor = i
			return EvError, 0, Field{}, Field{}
		}
	}
}

// parseModHead parses "oper name (SP length)? TAB" starting at buf[i],
// shared by the routing- and entity-modifier grammars. On success
// next is the offset of the first value
// byte and ok is true. On failure ok is false and ev carries
// EvInsufficient or the specific grammar-error code; the caller's own
// recorded resume point (the start of the line) is left untouched since
// no partial progress on the head is ever replayed across Feed calls.
func parseModHead(buf []byte, i int) (next int, oper byte, name Field, flag ModifierFlag, length int, ev Event, ok bool) {
	if i >= len(buf) {
		return 0, 0, Field{}, 0, 0, EvInsufficient, false
	}
	oper = buf[i]
	if !IsOperator(oper) {
		return 0, 0, Field{}, 0, 0, EvErrorModName, false
	}
	i++
	nameStart := i
	for i < len(buf) && buf[i] != ' ' && buf[i] != '\t' {
		if buf[i] == '\n' {
			return 0, 0, Field{}, 0, 0, EvErrorModTab, false
		}
		i++
	}
	if i >= len(buf) {
		return 0, 0, Field{}, 0, 0, EvInsufficient, false
	}
	if i == nameStart {
		return 0, 0, Field{}, 0, 0, EvErrorModName, false
	}
	name.Set(nameStart, i)
	if buf[i] == ' ' {
		i++
		digStart := i
		j := scanDigits(buf, i)
		if j >= len(buf) {
			return 0, 0, Field{}, 0, 0, EvInsufficient, false
		}
		if j == digStart {
			return 0, 0, Field{}, 0, 0, EvErrorModLen, false
		}
		n, decOK := DecodeUint(buf[digStart:j])
		if !decOK {
			return 0, 0, Field{}, 0, 0, EvErrorModLen, false
		}
		length = int(n)
		i = j
		flag = ModNeedLength
		if i >= len(buf) {
			return 0, 0, Field{}, 0, 0, EvInsufficient, false
		}
		if buf[i] != '\t' {
			return 0, 0, Field{}, 0, 0, EvErrorModTab, false
		}
		i++
	} else {
		i++
		flag = ModNoLength
	}
	return i, oper, name, flag, length, 0, true
}

// scanToTerminator finds the packet/content terminator inside buf[start:]
// when no explicit length was given: the first position k such that
// buf[k]=='|' and buf[k+1]=='\n', where either k==start (the data/content
// run is empty) or buf[k-1]=='\n' (the run's own trailing LF doubles as
// the terminator's leading LF, the general "LF '|' LF" delimiter). It
// returns the match position and whether a match was found within buf.
func scanToTerminator(buf []byte, start int) (k int, found bool) {
	for j := start; j+1 < len(buf); j++ {
		if buf[j] == '|' && buf[j+1] == '\n' && (j == start || buf[j-1] == '\n') {
			return j, true
		}
	}
	return 0, false
}
