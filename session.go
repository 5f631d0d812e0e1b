package abrtsp

import (
	"bufio"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/fancong5201314/abrtsp/internal/rtcpsender"
)

// TransportMode is the negotiated transport of a client session.
type TransportMode int

const (
	// Undecided means SETUP has not completed yet.
	Undecided TransportMode = iota

	// InterleavedTcp means RTP/RTCP are carried inside the RTSP TCP
	// connection (RFC 2326 §10.12).
	InterleavedTcp

	// Udp means RTP/RTCP are carried over dedicated UDP sockets.
	Udp
)

// clientSession represents one accepted control connection.
type clientSession struct {
	conn     net.Conn
	br       *bufio.Reader
	peerAddr net.Addr
	peerIP   net.IP

	mode TransportMode

	// InterleavedTcp
	rtpChannel  int
	rtcpChannel int

	// Udp
	rtpPort  int
	rtcpPort int

	playing bool
	token   string

	rtcpSender *rtcpsender.RTCPSender

	closed bool
}

func newSessionToken(fixed string) string {
	if fixed != "" {
		return fixed
	}

	id := uuid.New()
	// fold into a decimal-looking ASCII token, mirroring the shape of the
	// literal token it replaces.
	n := uint64(0)
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	n &= 0x7fffffffffffffff
	return decimalString(n)
}

func decimalString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// sessionRegistry tracks every accepted client session. It is the only
// shared mutable structure in the server; a single mutex guards both the
// map and per-client socket I/O performed while iterating it (see the
// concurrency model: this serializes broadcasts against accept/teardown,
// acceptable given the expected client count).
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[net.Conn]*clientSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[net.Conn]*clientSession)}
}

func (r *sessionRegistry) add(s *clientSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.conn] = s
}

func (r *sessionRegistry) remove(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conn)
}

func (r *sessionRegistry) get(conn net.Conn) (*clientSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[conn]
	return s, ok
}

// snapshot returns every currently registered connection. It is used by the
// event loop to avoid holding the lock across blocking reads on every
// connection.
func (r *sessionRegistry) snapshot() []net.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]net.Conn, 0, len(r.sessions))
	for c := range r.sessions {
		conns = append(conns, c)
	}
	return conns
}

// compact removes every session whose control socket has been marked
// closed.
func (r *sessionRegistry) compact() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn, s := range r.sessions {
		if s.closed {
			delete(r.sessions, conn)
		}
	}
}

// withEach runs fn against every session while holding the registry lock,
// serializing it against accept/teardown per the documented concurrency
// model.
func (r *sessionRegistry) withEach(fn func(*clientSession)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		fn(s)
	}
}
