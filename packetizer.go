package abrtsp

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pion/rtp"

	"github.com/fancong5201314/abrtsp/pkg/h264"
)

const (
	rtpPayloadType = 96
	rtpClockRate   = 90000
	rtpMaxPayload  = 1400
)

func randUint32() uint32 {
	var b [4]byte
	rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

// packetizer fragments NAL units into RTP packets per RFC 6184 (single NAL
// unit mode and FU-A only), owning the sequence number and 90kHz timestamp
// for one server's RTP send context. It is not safe for concurrent use;
// Send calls on the owning server must be serialized by the caller.
//
// RTP_MAX_PAYLOAD (1400) bounds the NAL body carried per FU-A fragment,
// matching the documented packet-count invariant ceil((size-1)/1400)
// exactly; this is why it wraps raw rtp.Packet construction rather than
// pkg/rtph264.Encoder, whose PayloadMaxSize instead bounds the whole RTP
// payload (FU-A header included), which would shift fragment boundaries by
// two bytes.
type packetizer struct {
	ssrc      uint32
	frameRate int

	seq int
	ts  uint32
}

func newPacketizer(ssrc *uint32, frameRate int) *packetizer {
	v := randUint32()
	if ssrc != nil {
		v = *ssrc
	}
	return &packetizer{
		ssrc:      v,
		frameRate: frameRate,
		seq:       int(uint16(randUint32())),
		ts:        randUint32(),
	}
}

// packetize splits one NAL unit into RTP packets. accessUnitFinal marks
// whether this NAL unit is the last one of its access unit; the marker bit
// is set accordingly on its final (or only) packet. The timestamp advances
// by 90000/frameRate ticks after the call unless the NAL type is SPS (7) or
// PPS (8).
func (p *packetizer) packetize(nalu []byte, accessUnitFinal bool) []*rtp.Packet {
	var pkts []*rtp.Packet

	if len(nalu) <= rtpMaxPayload {
		pkts = p.packetizeSingle(nalu, accessUnitFinal)
	} else {
		pkts = p.packetizeFUA(nalu, accessUnitFinal)
	}

	typ := nalu[0] & 0x1f
	if typ != uint8(h264.NALUTypeSPS) && typ != uint8(h264.NALUTypePPS) {
		p.ts += 90000 / uint32(p.frameRate)
	}

	return pkts
}

func (p *packetizer) nextHeader(marker bool) rtp.Header {
	h := rtp.Header{
		Version:        2,
		Marker:         marker,
		PayloadType:    rtpPayloadType,
		SequenceNumber: uint16(p.seq),
		Timestamp:      p.ts,
		SSRC:           p.ssrc,
	}
	p.seq = (p.seq + 1) % 65536
	return h
}

func (p *packetizer) packetizeSingle(nalu []byte, accessUnitFinal bool) []*rtp.Packet {
	return []*rtp.Packet{{
		Header:  p.nextHeader(accessUnitFinal),
		Payload: nalu,
	}}
}

func (p *packetizer) packetizeFUA(nalu []byte, accessUnitFinal bool) []*rtp.Packet {
	header := nalu[0]
	fnri := header & 0xe0
	typ := header & 0x1f
	body := nalu[1:]

	n := (len(body) + rtpMaxPayload - 1) / rtpMaxPayload
	pkts := make([]*rtp.Packet, n)

	for i := 0; i < n; i++ {
		start := i * rtpMaxPayload
		end := start + rtpMaxPayload
		if end > len(body) {
			end = len(body)
		}
		frag := body[start:end]

		fuIndicator := fnri | 28
		fuHeader := typ
		last := i == n-1
		if i == 0 {
			fuHeader |= 0x80
		}
		if last {
			fuHeader |= 0x40
		}

		payload := make([]byte, 2+len(frag))
		payload[0] = fuIndicator
		payload[1] = fuHeader
		copy(payload[2:], frag)

		pkts[i] = &rtp.Packet{
			Header:  p.nextHeader(last && accessUnitFinal),
			Payload: payload,
		}
	}

	return pkts
}
