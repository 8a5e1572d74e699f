// Package psycsp implements incremental, allocation-free parsing and
// rendering of the PSYC wire packet format.
package psycsp

// OffsT is the type used for offsets and lengths inside a Field.
// uint32 keeps packets up to 4G addressable while still letting Field
// pass around as two machine words.
type OffsT uint32

// Field is a zero-copy view into some external buffer: an offset and a
// length. It carries no buffer of its own -- the caller always supplies
// the buffer when resolving it to bytes via Get. Values returned by the
// parser alias the most recently fed buffer and are invalidated by the
// next Feed call.
type Field struct {
	Offs OffsT
	Len  OffsT
}

// Set points f at buf[start:end). end is the first byte after the field.
func (f *Field) Set(start, end int) {
	f.Offs = OffsT(start)
	f.Len = OffsT(end - start)
	if end < start {
		panic("psycsp: invalid field range")
	}
}

// Reset clears f to the empty field.
func (f *Field) Reset() {
	f.Offs = 0
	f.Len = 0
}

// Extend grows f's end to newEnd, keeping its start unchanged.
func (f *Field) Extend(newEnd int) {
	f.Len = OffsT(newEnd) - f.Offs
	if newEnd < int(f.Offs) {
		panic("psycsp: invalid field end offset")
	}
}

// Empty returns true if f has zero length.
func (f Field) Empty() bool {
	return f.Len == 0
}

// EndOffs returns the offset of the first byte after f.
func (f Field) EndOffs() int {
	return int(f.Offs) + int(f.Len)
}

// OffsIn returns true if offs lies inside f.
func (f Field) OffsIn(offs int) bool {
	return offs >= int(f.Offs) && offs < f.EndOffs()
}

// Get returns the byte slice f designates inside buf.
func (f Field) Get(buf []byte) []byte {
	return GetField(buf, f)
}

// GetField returns the byte slice corresponding to f inside buf.
func GetField(buf []byte, f Field) []byte {
	return buf[f.Offs : f.Offs+f.Len]
}
