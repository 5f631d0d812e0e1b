package abrtsp

import (
	"net"
	"strconv"

	"golang.org/x/net/ipv4"
)

// udpOutput is the server's pair of fixed UDP sockets used to send RTP and
// RTCP packets to clients that negotiated RTP/AVP transport in SETUP.
// Unlike the multicast listener this is adapted from, it binds a single
// unicast socket per port: there is no multicast group to join, only a
// type-of-service mark (RFC 2474 expedited-forwarding-ish DSCP) applied to
// outgoing packets to hint at low-latency handling along the path.
type udpOutput struct {
	rtpConn  net.PacketConn
	rtcpConn net.PacketConn
}

const udpDSCPExpeditedForwarding = 0xb8

func newUDPOutput(rtpPort, rtcpPort int) (*udpOutput, error) {
	rtpConn, err := net.ListenPacket("udp", ":"+strconv.Itoa(rtpPort))
	if err != nil {
		return nil, err
	}

	rtcpConn, err := net.ListenPacket("udp", ":"+strconv.Itoa(rtcpPort))
	if err != nil {
		rtpConn.Close()
		return nil, err
	}

	if p4 := ipv4.NewPacketConn(rtpConn); p4 != nil {
		p4.SetTOS(udpDSCPExpeditedForwarding) //nolint:errcheck
	}
	if p4 := ipv4.NewPacketConn(rtcpConn); p4 != nil {
		p4.SetTOS(udpDSCPExpeditedForwarding) //nolint:errcheck
	}

	return &udpOutput{rtpConn: rtpConn, rtcpConn: rtcpConn}, nil
}

func (u *udpOutput) close() {
	u.rtpConn.Close()
	u.rtcpConn.Close()
}
