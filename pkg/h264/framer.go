package h264

import "bytes"

// FramerBufferSize is the capacity of a Framer's internal scratch buffer.
const FramerBufferSize = 1024 * 1024

func startCodeLen(b []byte) int {
	if bytes.HasPrefix(b, []byte{0x00, 0x00, 0x00, 0x01}) {
		return 4
	}
	if bytes.HasPrefix(b, []byte{0x00, 0x00, 0x01}) {
		return 3
	}
	return 0
}

// findStartCode returns the offset of the first start code in b at or after
// from, and its length (3 or 4), or (-1, 0) if none is found.
func findStartCode(b []byte, from int) (int, int) {
	for i := from; i < len(b)-2; i++ {
		if b[i] == 0x00 && b[i+1] == 0x00 {
			if i+3 < len(b) && b[i+2] == 0x00 && b[i+3] == 0x01 {
				return i, 4
			}
			if b[i+2] == 0x01 {
				return i, 3
			}
		}
	}
	return -1, 0
}

// OnNALU is called by Framer for every NAL unit extracted from the stream.
type OnNALU func(nalu []byte)

// OnWarning is called by Framer to report a non-fatal condition, such as
// buffer overflow or resynchronization.
type OnWarning func(msg string)

// Framer is a streaming Annex-B parser. It accumulates chunks of arbitrary
// size across calls to Write and emits complete NAL units as soon as their
// closing start code (or a flush) is seen.
//
// A Framer is not safe for concurrent use; callers are expected to serialize
// their Write calls (see the publisher precondition in the server package).
type Framer struct {
	OnNALU    OnNALU
	OnWarning OnWarning

	buf []byte
}

func (f *Framer) warn(msg string) {
	if f.OnWarning != nil {
		f.OnWarning(msg)
	}
}

// Write appends data to the framing buffer and emits every complete NAL unit
// it can extract. A nil or empty data flushes: if the buffer holds exactly
// one complete NAL unit with no trailing start code, it is emitted and the
// buffer is cleared.
func (f *Framer) Write(data []byte) {
	if len(data) == 0 {
		f.flush()
		return
	}

	if len(f.buf)+len(data) > FramerBufferSize {
		f.warn("framing buffer full, dropping chunk")
		return
	}
	f.buf = append(f.buf, data...)

	for {
		scLen := startCodeLen(f.buf)
		if scLen == 0 {
			off, ln := findStartCode(f.buf, 0)
			if off < 0 {
				// no start code anywhere yet; wait for more bytes, unless
				// the buffer is already saturated with garbage.
				if len(f.buf) >= FramerBufferSize {
					f.warn("no start code found, discarding buffer")
					f.buf = f.buf[:0]
				}
				return
			}
			f.warn("leading garbage before first start code, resynchronizing")
			f.buf = f.buf[off:]
			scLen = ln
		}

		nextOff, _ := findStartCode(f.buf, scLen)
		if nextOff < 0 {
			// incomplete NAL; keep what we have and wait for more.
			return
		}

		nalu := f.buf[scLen:nextOff]
		if len(nalu) > 0 && f.OnNALU != nil {
			f.OnNALU(nalu)
		}
		f.buf = f.buf[nextOff:]
	}
}

func (f *Framer) flush() {
	scLen := startCodeLen(f.buf)
	if scLen == 0 {
		return
	}

	off, _ := findStartCode(f.buf, scLen)
	if off >= 0 {
		return
	}

	nalu := f.buf[scLen:]
	if len(nalu) > 0 && f.OnNALU != nil {
		f.OnNALU(nalu)
	}
	f.buf = f.buf[:0]
}
