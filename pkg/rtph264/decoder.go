// Package rtph264 reconstructs Annex-B H264 NAL units from an RTP stream
// carrying RFC 6184 single-NAL-unit and FU-A payloads.
package rtph264

import (
	"fmt"
	"io"

	"github.com/pion/rtp"
)

// Decoder turns RTP/H264 packets into NAL units, one NAL unit per Read
// call. A fragmented NAL unit is reassembled within a single Read call,
// which keeps reading packets until the FU-A End fragment arrives.
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a decoder that pulls RTP packets from r, one per Read
// call (the shape a pull client's interleaved-frame reader provides).
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 2048),
	}
}

// Read blocks until one RTP packet is available and returns the NAL unit
// it carries; for a FU-A Start fragment it reads the following packets
// until the End fragment and returns the reassembled NAL unit.
func (d *Decoder) Read() ([][]byte, error) {
	n, err := d.r.Read(d.buf)
	if err != nil {
		return nil, err
	}

	pkt := rtp.Packet{}
	err = pkt.Unmarshal(d.buf[:n])
	if err != nil {
		return nil, err
	}
	payload := pkt.Payload

	typ := NALUType(payload[0] & 0x1F)

	switch typ {
	case NALUTypeNonIDR, NALUTypeDataPartitionA, NALUTypeDataPartitionB,
		NALUTypeDataPartitionC, NALUTypeIDR, NALUTypeSei, NALUTypeSPS,
		NALUTypePPS, NALUTypeAccessUnitDelimiter, NALUTypeEndOfSequence,
		NALUTypeEndOfStream, NALUTypeFillerData, NALUTypeSPSExtension,
		NALUTypePrefix, NALUTypeSubsetSPS, NALUTypeReserved16, NALUTypeReserved17,
		NALUTypeReserved18, NALUTypeSliceLayerWithoutPartitioning,
		NALUTypeSliceExtension, NALUTypeSliceExtensionDepth, NALUTypeReserved22,
		NALUTypeReserved23:
		return [][]byte{payload}, nil

	case NALUTypeFuA:
		return d.readFragmented(payload)

	case NALUTypeStapA, NALUTypeStapB, NALUTypeMtap16, NALUTypeMtap24, NALUTypeFuB:
		return nil, fmt.Errorf("NALU type not supported (%d)", typ)
	}

	return nil, fmt.Errorf("invalid NALU type (%d)", typ)
}

func (d *Decoder) readFragmented(payload []byte) ([][]byte, error) {
	// the reassembled NAL unit can be arbitrarily large; it can't be
	// preallocated from the first fragment alone.
	var ret []byte

	nri := (payload[0] >> 5) & 0x03
	start := payload[1] >> 7
	if start != 1 {
		return nil, fmt.Errorf("first NALU does not contain the start bit")
	}
	typ := payload[1] & 0x1F
	ret = append([]byte{(nri << 5) | typ}, payload[2:]...)

	for {
		n, err := d.r.Read(d.buf)
		if err != nil {
			return nil, err
		}

		pkt := rtp.Packet{}
		err = pkt.Unmarshal(d.buf[:n])
		if err != nil {
			return nil, err
		}
		payload := pkt.Payload

		typ := NALUType(payload[0] & 0x1F)
		if typ != NALUTypeFuA {
			return nil, fmt.Errorf("non-starting NALU is not FU-A")
		}
		end := (payload[1] >> 6) & 0x01

		ret = append(ret, payload[2:]...)

		if end == 1 {
			break
		}
	}

	return [][]byte{ret}, nil
}
