package psycsp

import (
	"bytes"
	"strings"
	"testing"
)

// arena accumulates the backing bytes for the Fields of a hand-built
// Packet. Fields are offsets, so appending more strings never invalidates
// ones already handed out.
type arena struct{ buf []byte }

func (a *arena) add(s string) Field {
	start := len(a.buf)
	a.buf = append(a.buf, s...)
	var f Field
	f.Set(start, len(a.buf))
	return f
}

type rtMod struct {
	oper  byte
	name  string
	value string
	flag  ModifierFlag // ModUnset: let ComputeModifierFlag decide
}

func buildPacket(a *arena, routing, entity []rtMod, method, data string) *Packet {
	p := &Packet{Flag: PacketCheck}
	for _, m := range routing {
		p.Routing = append(p.Routing, Modifier{Oper: Operator(m.oper),
			Name: a.add(m.name), Value: a.add(m.value), Flag: ModRouting})
	}
	for _, m := range entity {
		flag := m.flag
		if flag == ModUnset {
			flag = ComputeModifierFlag([]byte(m.value))
		}
		p.Entity = append(p.Entity, Modifier{Oper: Operator(m.oper),
			Name: a.add(m.name), Value: a.add(m.value), Flag: flag})
	}
	p.Method = a.add(method)
	p.Data = a.add(data)
	return p
}

// renderPacket resolves the flag, computes lengths and renders p,
// asserting the rendered byte count matches the computed TotalLength.
func renderPacket(t *testing.T, p *Packet, buf []byte) []byte {
	t.Helper()
	var b PacketBuilder
	if p.Flag == PacketCheck || p.Flag == PacketUnset {
		p.Flag = b.ComputeFlag(p, buf)
	}
	b.ComputeLength(p, buf)
	out := make([]byte, p.TotalLength)
	n, res := b.Render(p, buf, out)
	if res != RenderSuccess {
		t.Fatalf("Render() = %v, want RenderSuccess", res)
	}
	if n != p.TotalLength {
		t.Fatalf("Render() wrote %d bytes, ComputeLength said %d", n, p.TotalLength)
	}
	return out
}

func TestComputePacketFlag(t *testing.T) {
	var b PacketBuilder
	cases := []struct {
		desc string
		data string
		want PacketFlag
	}{
		{"small plain data", "Hi there", PacketNoLength},
		{"empty data", "", PacketNoLength},
		{"single delimiter glyph", "|", PacketNeedLength},
		{"data containing the packet terminator", "a\n|\nb", PacketNeedLength},
		{"data over the content threshold",
			strings.Repeat("x", CONTENT_SIZE_THRESHOLD+1), PacketNeedLength},
		{"data with plain LF", "a\nb", PacketNoLength},
	}
	for _, c := range cases {
		var a arena
		p := buildPacket(&a, nil, nil, "_m", c.data)
		if got := b.ComputeFlag(p, a.buf); got != c.want {
			t.Errorf("%s: ComputeFlag() = %v, want %v", c.desc, got, c.want)
		}
	}

	// an entity modifier that itself needs a length forces the packet flag
	var a arena
	p := buildPacket(&a, nil,
		[]rtMod{{'=', "_list", "x|y\nz", ModUnset}}, "_m", "ok")
	if got := b.ComputeFlag(p, a.buf); got != PacketNeedLength {
		t.Errorf("ComputeFlag(entity NEED_LENGTH) = %v, want PacketNeedLength", got)
	}

	// raw content mode checks the content slice instead of the data
	var ra arena
	rp := &Packet{HasContent: true, Content: ra.add("_m\n|\n"), Flag: PacketCheck}
	if got := b.ComputeFlag(rp, ra.buf); got != PacketNeedLength {
		t.Errorf("ComputeFlag(raw content with terminator) = %v, want PacketNeedLength", got)
	}
}

func TestRenderSimplePacket(t *testing.T) {
	var a arena
	p := buildPacket(&a,
		[]rtMod{{':', "_source", "psyc://example.org/~alice", 0}},
		nil, "_hello", "Hi there")
	out := renderPacket(t, p, a.buf)
	want := ":_source\tpsyc://example.org/~alice\n\n_hello\nHi there\n|\n"
	if string(out) != want {
		t.Fatalf("Render() = %q, want %q", out, want)
	}
	if p.Flag != PacketNoLength {
		t.Fatalf("Flag = %v, want PacketNoLength", p.Flag)
	}
}

func TestRenderNeedLengthDelimiterData(t *testing.T) {
	var a arena
	p := buildPacket(&a, []rtMod{{':', "_source", "x", 0}}, nil, "_m", "|")
	out := renderPacket(t, p, a.buf)
	want := ":_source\tx\n5\n_m\n|\n|\n"
	if string(out) != want {
		t.Fatalf("Render() = %q, want %q", out, want)
	}
	if p.Flag != PacketNeedLength {
		t.Fatalf("Flag = %v, want PacketNeedLength", p.Flag)
	}
}

func TestRenderErrors(t *testing.T) {
	var b PacketBuilder

	var a arena
	p := buildPacket(&a, []rtMod{{':', "_s", "x", 0}}, nil, "_m", "hi")
	p.Flag = b.ComputeFlag(p, a.buf)
	b.ComputeLength(p, a.buf)
	short := make([]byte, p.TotalLength-1)
	if _, res := b.Render(p, a.buf, short); res != RenderError {
		t.Errorf("Render(short buffer) = %v, want RenderError", res)
	}

	var na arena
	noName := &Packet{Flag: PacketNoLength}
	noName.Routing = append(noName.Routing, Modifier{Oper: OpAssign,
		Value: na.add("v"), Flag: ModRouting})
	b.ComputeLength(noName, na.buf)
	out := make([]byte, noName.TotalLength)
	if _, res := b.Render(noName, na.buf, out); res != RenderErrorModifierNameMissing {
		t.Errorf("Render(empty modifier name) = %v, want RenderErrorModifierNameMissing", res)
	}

	var da arena
	noMethod := buildPacket(&da, nil, nil, "", "payload")
	noMethod.Flag = b.ComputeFlag(noMethod, da.buf)
	b.ComputeLength(noMethod, da.buf)
	out = make([]byte, noMethod.TotalLength)
	if _, res := b.Render(noMethod, da.buf, out); res != RenderErrorMethodMissing {
		t.Errorf("Render(data without method) = %v, want RenderErrorMethodMissing", res)
	}
}

var roundTripTests = []struct {
	desc    string
	routing []rtMod
	entity  []rtMod
	method  string
	data    string
}{
	{
		desc: "routing, method and body",
		routing: []rtMod{
			{':', "_source", "psyc://example.org/~alice", 0}},
		method: "_hello", data: "Hi there",
	},
	{
		desc: "empty packet",
	},
	{
		desc:    "entities, empty data",
		routing: []rtMod{{':', "_s", "x", 0}},
		entity:  []rtMod{{'=', "_foo", "bar", 0}},
		method:  "_m",
	},
	{
		desc:    "entity value with LF and delimiter",
		routing: []rtMod{{':', "_s", "x", 0}},
		entity:  []rtMod{{'=', "_list", "x|y\nz", 0}},
		method:  "_m", data: "ok",
	},
	{
		desc:   "zero-length entity value keeps its explicit length",
		entity: []rtMod{{'=', "_e", "", ModNeedLength}},
		method: "_m",
	},
	{
		desc:   "data equal to the delimiter glyph",
		method: "_m", data: "|",
	},
	{
		desc:   "data containing the packet terminator",
		method: "_m", data: "a\n|\nb",
	},
	{
		desc:   "data over the content threshold",
		method: "_m", data: strings.Repeat("z", CONTENT_SIZE_THRESHOLD+17),
	},
	{
		desc: "several modifiers of each kind",
		routing: []rtMod{
			{':', "_source", "a", 0},
			{'=', "_target", "b", 0},
		},
		entity: []rtMod{
			{'+', "_x", "1", 0},
			{'-', "_y", "2", 0},
		},
		method: "_notice_add", data: "payload",
	},
}

// TestPacketRoundTrip renders every table packet and checks the parser
// recovers it exactly -- modifiers, flags, method and data -- both from
// the whole buffer and from random split points (chunk invariance).
func TestPacketRoundTrip(t *testing.T) {
	const rounds = 20
	for _, c := range roundTripTests {
		var a arena
		p := buildPacket(&a, c.routing, c.entity, c.method, c.data)
		out := renderPacket(t, p, a.buf)

		want := parsedPacket{method: c.method, data: c.data, complete: true}
		for _, m := range c.routing {
			want.routing = append(want.routing,
				parsedMod{m.oper, m.name, m.value, ModNoLength})
		}
		for i, m := range c.entity {
			want.entity = append(want.entity,
				parsedMod{m.oper, m.name, m.value, p.Entity[i].Flag})
		}

		got, ev := parseWhole(t, 0, string(out))
		if ev != EvComplete {
			t.Errorf("%s: final event %v, want EvComplete", c.desc, ev)
			continue
		}
		assertPacketEqual(t, got, want)

		for r := 0; r < rounds; r++ {
			pieces := randSplit(out, randPieceCount(out))
			got, ev = parsePieces(t, 0, pieces)
			if ev != EvComplete {
				t.Fatalf("%s (round %d, %d pieces): final event %v, want EvComplete",
					c.desc, r, len(pieces), ev)
			}
			assertPacketEqual(t, got, want)
		}
	}
}

// TestRenderRawContentRoundTrip parses a rendered packet in routing-only
// mode, re-renders the opaque content in raw mode, and expects the exact
// original bytes back -- for both framing flags.
func TestRenderRawContentRoundTrip(t *testing.T) {
	cases := []struct {
		desc string
		data string
	}{
		{"no-length framing", "Hi there"},
		{"need-length framing", "|"},
	}
	for _, c := range cases {
		var a arena
		p := buildPacket(&a, []rtMod{{':', "_source", "x", 0}}, nil, "_m", c.data)
		wire := renderPacket(t, p, a.buf)

		pp, ev := parseWhole(t, FlagRoutingOnly, string(wire))
		if ev != EvComplete {
			t.Fatalf("%s: routing-only parse ended with %v", c.desc, ev)
		}

		var ra arena
		raw := &Packet{HasContent: true, Flag: PacketCheck}
		for _, m := range pp.routing {
			raw.Routing = append(raw.Routing, Modifier{Oper: Operator(m.oper),
				Name: ra.add(m.name), Value: ra.add(m.value), Flag: ModRouting})
		}
		raw.Content = ra.add(pp.content)
		rewire := renderPacket(t, raw, ra.buf)
		if !bytes.Equal(rewire, wire) {
			t.Fatalf("%s: raw re-render = %q, want %q", c.desc, rewire, wire)
		}
	}
}
