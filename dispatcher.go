package abrtsp

import (
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/fancong5201314/abrtsp/pkg/base"
)

// videoRTPChannel is the interleaved channel every TCP client's RTP
// envelope is sent on. There is exactly one shared RTP send context, so
// this is fixed rather than per-client-negotiated; only the control
// connection's echoed Transport header varies by client.
const (
	videoRTPChannel  = 0
	videoRTCPChannel = 1
)

// dispatcher fans RTP packets out to every playing client over the
// transport it negotiated. Errors on a per-client send are logged, never
// fatal; a client is only dropped when its control socket reports EOF.
type dispatcher struct {
	registry *sessionRegistry
	rtpConn  net.PacketConn
	logger   Logger
}

func (d *dispatcher) send(pkt *rtp.Packet) {
	raw, err := pkt.Marshal()
	if err != nil {
		d.logger.Warnf("failed to marshal RTP packet: %v", err)
		return
	}

	d.registry.withEach(func(s *clientSession) {
		if !s.playing || s.closed {
			return
		}

		switch s.mode {
		case InterleavedTcp:
			d.sendInterleaved(s, raw)

		case Udp:
			d.sendUDP(s, raw)

		case Undecided:
		}

		if s.rtcpSender != nil {
			s.rtcpSender.ProcessPacketRTP(pkt, time.Now(), true)
		}
	})
}

func (d *dispatcher) sendInterleaved(s *clientSession, raw []byte) {
	frame := base.InterleavedFrame{Channel: videoRTPChannel, Payload: raw}
	buf, err := frame.Marshal()
	if err != nil {
		d.logger.Warnf("failed to marshal interleaved frame: %v", err)
		return
	}

	_, err = s.conn.Write(buf)
	if err != nil {
		d.logger.Warnf("write to %v failed: %v", s.peerAddr, err)
	}
}

func (d *dispatcher) sendUDP(s *clientSession, raw []byte) {
	if d.rtpConn == nil {
		return
	}

	addr := &net.UDPAddr{IP: s.peerIP, Port: s.rtpPort}
	_, err := d.rtpConn.WriteTo(raw, addr)
	if err != nil {
		d.logger.Warnf("udp write to %v failed: %v", addr, err)
	}
}
