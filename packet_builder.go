package psycsp

import "bytes"

// PacketBuilder computes the framing metadata for a Packet and renders it
// to wire bytes. It is stateless across calls -- the same PacketBuilder
// value may be reused for any number of packets.
type PacketBuilder struct{}

// ComputeFlag returns PacketNeedLength iff the packet's data (or raw
// content, when p.HasContent) could otherwise be confused with framing:
// the single-byte delimiter glyph, a payload over the content-size
// threshold, an entity modifier that itself needs an explicit length, or
// the literal packet-terminator sequence appearing inside the data.
func (PacketBuilder) ComputeFlag(p *Packet, buf []byte) PacketFlag {
	var data []byte
	if p.HasContent {
		data = p.Content.Get(buf)
	} else {
		data = p.Data.Get(buf)
	}
	if len(data) == 1 && data[0] == '|' {
		return PacketNeedLength
	}
	if len(data) > CONTENT_SIZE_THRESHOLD {
		return PacketNeedLength
	}
	if !p.HasContent {
		for i := range p.Entity {
			if p.Entity[i].Flag == ModNeedLength {
				return PacketNeedLength
			}
		}
	}
	if bytes.Contains(data, packetDelim) {
		return PacketNeedLength
	}
	return PacketNoLength
}

// ComputeLength fills in p.RoutingLength, p.ContentLength and
// p.TotalLength. buf is the backing buffer that p's Fields alias. p.Flag
// must already be resolved to PacketNoLength or PacketNeedLength (call
// ComputeFlag first if p.Flag is PacketCheck).
func (PacketBuilder) ComputeLength(p *Packet, buf []byte) {
	routingLength := 0
	for i := range p.Routing {
		m := &p.Routing[i]
		routingLength += modifierLength(m.Name.Get(buf), m.Value.Get(buf), ModNoLength)
	}
	p.RoutingLength = routingLength

	var contentLength int
	if p.HasContent {
		contentLength = int(p.Content.Len)
	} else {
		for i := range p.Entity {
			m := &p.Entity[i]
			contentLength += modifierLength(m.Name.Get(buf), m.Value.Get(buf), m.Flag)
		}
		if len(p.Entity) > 0 {
			// separator LF between the entity-modifier run and the
			// method line, present only when entities are rendered
			contentLength++
		}
		// The method line's own LF is always present, even for a
		// zero-length method: the parser has no "no method line at all"
		// state to resume into.
		contentLength += int(p.Method.Len) + 1
		if !p.Data.Empty() {
			contentLength += int(p.Data.Len) + 1
		}
	}
	p.ContentLength = contentLength

	total := routingLength + contentLength + 2 // '|' LF
	if contentLength > 0 || p.Flag == PacketNeedLength {
		total++ // the length line's LF, separating routing header from content
	}
	if p.Flag == PacketNeedLength {
		total += DigitLen(uint64(contentLength))
	}
	p.TotalLength = total
}

// Render serializes p into out, which must be at least p.TotalLength
// bytes long, and returns the number of bytes written. buf is the backing
// buffer that p's Fields alias. Call ComputeLength first so p's length
// fields are current.
func (PacketBuilder) Render(p *Packet, buf []byte, out []byte) (int, RenderResult) {
	if len(out) < p.TotalLength {
		return 0, RenderError
	}
	for i := range p.Routing {
		if p.Routing[i].Name.Empty() {
			return 0, RenderErrorModifierNameMissing
		}
	}
	if !p.HasContent {
		for i := range p.Entity {
			if p.Entity[i].Name.Empty() {
				return 0, RenderErrorModifierNameMissing
			}
		}
		if !p.Data.Empty() && p.Method.Empty() {
			return 0, RenderErrorMethodMissing
		}
	}

	n := 0
	for i := range p.Routing {
		// routing modifiers never carry an inline length, whatever their
		// Flag says; ComputeLength budgets them the same way
		n += renderModifier(out[n:], &p.Routing[i], buf, ModNoLength)
	}
	// The length line terminating the routing header: "digits? LF". The
	// digits are present only in NEED_LENGTH framing; the LF whenever any
	// content (or the digits) follows.
	if p.Flag == PacketNeedLength {
		n += EncodeUint(out[n:], uint64(p.ContentLength))
	}
	if p.ContentLength > 0 || p.Flag == PacketNeedLength {
		out[n] = '\n'
		n++
	}
	if p.HasContent {
		n += copy(out[n:], p.Content.Get(buf))
	} else {
		for i := range p.Entity {
			n += renderModifier(out[n:], &p.Entity[i], buf, p.Entity[i].Flag)
		}
		if len(p.Entity) > 0 {
			out[n] = '\n'
			n++
		}
		method := p.Method.Get(buf)
		n += copy(out[n:], method)
		out[n] = '\n'
		n++
		data := p.Data.Get(buf)
		n += copy(out[n:], data)
		if len(data) > 0 {
			out[n] = '\n'
			n++
		}
	}
	out[n] = '|'
	n++
	out[n] = '\n'
	n++
	return n, RenderSuccess
}

// renderModifier writes "oper name (SP length)? TAB value LF" for m into
// out, returning the number of bytes written. flag is the effective wire
// framing (routing modifiers are forced to ModNoLength by the caller).
func renderModifier(out []byte, m *Modifier, buf []byte, flag ModifierFlag) int {
	n := 0
	out[n] = byte(m.Oper)
	n++
	n += copy(out[n:], m.Name.Get(buf))
	value := m.Value.Get(buf)
	if flag == ModNeedLength {
		out[n] = ' '
		n++
		n += EncodeUint(out[n:], uint64(len(value)))
	}
	out[n] = '\t'
	n++
	n += copy(out[n:], value)
	out[n] = '\n'
	n++
	return n
}
