package psycsp

// Framing thresholds: implementation constants chosen to
// prefer the short wire form for small payloads. A payload of the exact
// single-byte packet delimiter glyph, or one containing the full packet
// terminator "LF '|' LF", always takes the NEED_LENGTH form regardless of
// these thresholds.
const (
	// MODIFIER_SIZE_THRESHOLD is the byte count above which a modifier
	// value (or list element run) is forced into NEED_LENGTH framing.
	MODIFIER_SIZE_THRESHOLD = 1024
	// CONTENT_SIZE_THRESHOLD is the byte count above which packet content
	// is forced into NEED_LENGTH framing.
	CONTENT_SIZE_THRESHOLD = 512
)
