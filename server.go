package abrtsp

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/pion/rtcp"

	"github.com/fancong5201314/abrtsp/internal/rtcpsender"
	"github.com/fancong5201314/abrtsp/pkg/base"
	"github.com/fancong5201314/abrtsp/pkg/h264"
)

// Server accepts RTSP control connections and broadcasts a single live
// H264 stream, pushed in through Send, to every client that reaches the
// Playing state.
type Server struct {
	conf ServerConf

	listener net.Listener
	udp      *udpOutput

	registry   *sessionRegistry
	engine     *rtspEngine
	dispatcher *dispatcher
	loop       *eventLoop

	framer     *h264.Framer
	packetizer *packetizer

	acceptWg   sync.WaitGroup
	acceptQuit chan struct{}

	sendMu sync.Mutex
}

// New starts a Server listening on conf.RTSPAddr (":554" by default) and
// returns once the control listener and UDP output sockets are bound.
func New(conf ServerConf) (*Server, error) {
	conf.setDefaults()

	listener, err := net.Listen("tcp", conf.RTSPAddr)
	if err != nil {
		return nil, fmt.Errorf("abrtsp: listen %s: %w", conf.RTSPAddr, err)
	}

	udp, err := newUDPOutput(conf.RTPPort, conf.RTCPPort)
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("abrtsp: udp output: %w", err)
	}

	s := &Server{
		conf:       conf,
		listener:   listener,
		udp:        udp,
		registry:   newSessionRegistry(),
		packetizer: newPacketizer(conf.SSRC, conf.FrameRate),
		acceptQuit: make(chan struct{}),
	}

	s.engine = &rtspEngine{
		registry:   s.registry,
		logger:     conf.Logger,
		fixedToken: conf.FixedSessionToken,
		rtpPort:    conf.RTPPort,
		rtcpPort:   conf.RTCPPort,
		track:      &trackInfo{},
	}

	s.dispatcher = &dispatcher{
		registry: s.registry,
		rtpConn:  udp.rtpConn,
		logger:   conf.Logger,
	}

	s.framer = &h264.Framer{
		OnNALU:    s.onNALU,
		OnWarning: func(msg string) { conf.Logger.Warnf("framer: %s", msg) },
	}

	s.loop = newEventLoop(s.registry, s.engine, conf.ReadTimeout, conf.Logger)
	s.loop.start()

	s.acceptWg.Add(1)
	go s.acceptLoop()

	return s, nil
}

func (s *Server) acceptLoop() {
	defer s.acceptWg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.acceptQuit:
				return
			default:
				s.conf.Logger.Errorf("accept: %v", err)
				return
			}
		}

		s.acceptConn(conn)
	}
}

func (s *Server) acceptConn(conn net.Conn) {
	sess := &clientSession{
		conn:     conn,
		br:       bufio.NewReaderSize(conn, 4096),
		peerAddr: conn.RemoteAddr(),
	}

	if host, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		sess.peerIP = net.ParseIP(host)
	}

	if s.conf.RTCPSenderReportPeriod > 0 {
		sess.rtcpSender = s.newRTCPSender(sess)
		sess.rtcpSender.Initialize()
	}

	s.registry.add(sess)
}

func (s *Server) newRTCPSender(sess *clientSession) *rtcpsender.RTCPSender {
	return &rtcpsender.RTCPSender{
		ClockRate: rtpClockRate,
		Period:    s.conf.RTCPSenderReportPeriod,
		WritePacketRTCP: func(pkt rtcp.Packet) {
			raw, err := pkt.Marshal()
			if err != nil {
				return
			}

			switch sess.mode {
			case InterleavedTcp:
				frame := base.InterleavedFrame{Channel: videoRTCPChannel, Payload: raw}
				if buf, err := frame.Marshal(); err == nil {
					sess.conn.Write(buf) //nolint:errcheck
				}

			case Udp:
				if sess.peerIP != nil {
					addr := &net.UDPAddr{IP: sess.peerIP, Port: sess.rtcpPort}
					s.udp.rtcpConn.WriteTo(raw, addr) //nolint:errcheck
				}
			}
		},
	}
}

// onNALU is called by the framer for every NAL unit extracted from a Send
// call. It packetizes the NAL unit and broadcasts the resulting RTP
// packets to every playing client. It also remembers SPS/PPS for the next
// DESCRIBE.
func (s *Server) onNALU(nalu []byte) {
	typ := nalu[0] & 0x1f
	switch typ {
	case uint8(h264.NALUTypeSPS):
		s.engine.track.setSPS(append([]byte(nil), nalu...))

	case uint8(h264.NALUTypePPS):
		s.engine.track.setPPS(append([]byte(nil), nalu...))
	}

	for _, pkt := range s.packetizer.packetize(nalu, true) {
		s.dispatcher.send(pkt)
	}
}

// Send injects one chunk of an H264 Annex-B byte stream into the server.
// Chunks need not align with NAL unit boundaries; the server reassembles
// them internally. It returns the number of bytes accepted, which is
// always len(data) unless the framing buffer has overflowed, in which case
// the chunk is dropped and reported through the configured Logger.
func (s *Server) Send(data []byte) (int, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.framer.Write(data)
	return len(data), nil
}

// Close stops accepting connections, terminates every active session and
// releases all sockets.
func (s *Server) Close() error {
	close(s.acceptQuit)
	err := s.listener.Close()
	s.acceptWg.Wait()

	s.loop.stop()

	s.registry.withEach(func(sess *clientSession) {
		if sess.rtcpSender != nil {
			sess.rtcpSender.Close()
		}
		sess.conn.Close()
	})

	s.udp.close()

	return err
}
