package psycsp

// PacketFlag classifies how a Packet's content is framed on the wire.
type PacketFlag uint8

const (
	// PacketUnset: not yet decided.
	PacketUnset PacketFlag = iota
	// PacketCheck: caller asks PacketBuilder to infer the flag from the
	// packet's contents (ComputeFlag) rather than trusting a pre-set one.
	PacketCheck
	// PacketNoLength: content is framed by the packet terminator alone.
	PacketNoLength
	// PacketNeedLength: content carries an explicit decimal length before
	// it, so it may itself contain the packet terminator.
	PacketNeedLength
)

// Packet is the egress-side aggregate PacketBuilder operates on: a caller
// assembles one from already-parsed or newly-constructed Modifiers and
// Fields, then calls ComputeFlag/ComputeLength/Render to serialize it.
// PacketParser, on the ingress side, never populates a Packet itself — it
// hands the caller one event at a time; a caller that wants a full
// in-memory Packet builds it by appending to Routing/Entity as
// ROUTING/ENTITY events arrive.
//
// A Packet holds EITHER (Entity, Method, Data) OR Content, never both:
// HasContent selects "raw content" mode, where Entity/Method/Data are
// ignored and Content stands in for the whole entity+method+data section.
type Packet struct {
	Routing []Modifier
	Entity  []Modifier
	Method  Field
	Data    Field

	Content    Field
	HasContent bool

	RoutingLength int
	ContentLength int
	TotalLength   int
	Flag          PacketFlag
}

// Reset clears p to its zero value. Routing and Entity slices are
// truncated to length zero but keep their underlying array, so repeated
// use of the same Packet across many Render calls need not reallocate.
func (p *Packet) Reset() {
	routing := p.Routing[:0]
	entity := p.Entity[:0]
	*p = Packet{Routing: routing, Entity: entity}
}
