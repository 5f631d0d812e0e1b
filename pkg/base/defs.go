package base

// StreamType distinguishes the two channels of a video interleaved pair.
type StreamType int

const (
	// StreamTypeRTP carries RTP packets.
	StreamTypeRTP StreamType = iota

	// StreamTypeRTCP carries RTCP packets.
	StreamTypeRTCP
)

// String implements fmt.Stringer.
func (st StreamType) String() string {
	switch st {
	case StreamTypeRTP:
		return "RTP"

	case StreamTypeRTCP:
		return "RTCP"
	}
	return "unknown"
}
