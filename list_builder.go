package psycsp

import "bytes"

// ListBuilder computes framing and renders the PSYC inner list grammar.
// It is stateless: every method takes the element slice it operates on.
type ListBuilder struct{}

// ComputeListFlag decides whether elems must be rendered in the
// length-prefixed grammar: true iff the running sum of "|elem" byte counts
// exceeds MODIFIER_SIZE_THRESHOLD, or any element contains '|' or LF.
func ComputeListFlag(elems [][]byte) ListType {
	length := 0
	for _, e := range elems {
		length += 1 + len(e) // |elem
		if length > MODIFIER_SIZE_THRESHOLD ||
			bytes.IndexByte(e, '|') >= 0 || bytes.IndexByte(e, '\n') >= 0 {
			return ListLengthPrefixed
		}
	}
	return ListShort
}

// ComputeListLength returns the number of bytes elems occupy on the wire
// under the given flag.
func ComputeListLength(elems [][]byte, flag ListType) int {
	length := 0
	if flag == ListLengthPrefixed {
		for i, e := range elems {
			if i > 0 {
				length++ // '|'
			}
			length += DigitLen(uint64(len(e))) + 1 + len(e) // length SP elem
		}
	} else {
		for _, e := range elems {
			length += 1 + len(e) // |elem
		}
	}
	return length
}

// Render writes elems into out under the given flag, returning
// RenderSuccess or RenderError if out is too small.
func (ListBuilder) Render(elems [][]byte, flag ListType, out []byte) RenderResult {
	need := ComputeListLength(elems, flag)
	if len(out) < need {
		return RenderError
	}
	o := 0
	if flag == ListLengthPrefixed {
		for i, e := range elems {
			if i > 0 {
				out[o] = '|'
				o++
			}
			o += EncodeUint(out[o:], uint64(len(e)))
			out[o] = ' '
			o++
			o += copy(out[o:], e)
		}
	} else {
		for _, e := range elems {
			out[o] = '|'
			o++
			o += copy(out[o:], e)
		}
	}
	return RenderSuccess
}
