package abrtsp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fancong5201314/abrtsp/pkg/base"
	"github.com/fancong5201314/abrtsp/pkg/h264"
	"github.com/fancong5201314/abrtsp/pkg/headers"
	"github.com/fancong5201314/abrtsp/pkg/liberrors"
	"github.com/fancong5201314/abrtsp/pkg/rtph264"
)

// Client pulls a single H264 video stream from an RTSP server over TCP
// interleaved transport, reassembling RTP/FU-A fragments into Annex-B NAL
// units delivered to a user callback.
type Client struct {
	conf    ClientConf
	url     *base.URL
	conn    net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	seq     int
	session string

	onFrame func([]byte)

	readerWg  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
	quit      chan struct{}
}

// interleavedRTPReader adapts the channel-0 RTP stream of a TCP-interleaved
// RTSP control connection into the single-packet-per-Read io.Reader that
// rtph264.Decoder expects.
type interleavedRTPReader struct {
	conn        net.Conn
	br          *bufio.Reader
	readTimeout time.Duration
}

func (r *interleavedRTPReader) Read(p []byte) (int, error) {
	for {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
			return 0, err
		}

		var frame base.InterleavedFrame
		if err := frame.Unmarshal(r.br); err != nil {
			return 0, err
		}

		if frame.Channel != 0 {
			continue
		}

		return copy(p, frame.Payload), nil
	}
}

// NewClient parses url (rtsp://host[:port]/path, with 554 implied when the
// port is omitted), performs the OPTIONS/DESCRIBE/SETUP/PLAY handshake over
// a freshly dialed TCP connection, and starts a receive goroutine that
// invokes onFrame with reassembled Annex-B NAL units.
func NewClient(rawURL string, onFrame func([]byte), opts ...ClientOption) (*Client, error) {
	var conf ClientConf
	for _, o := range opts {
		o(&conf)
	}
	conf.setDefaults()

	u, err := parseClientURL(rawURL)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(u.Hostname(), clientPort(u))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("abrtsp: dial %s: %w", addr, err)
	}

	c := &Client{
		conf:    conf,
		url:     u,
		conn:    conn,
		br:      bufio.NewReaderSize(conn, 4096),
		bw:      bufio.NewWriterSize(conn, 4096),
		onFrame: onFrame,
		quit:    make(chan struct{}),
	}

	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	c.readerWg.Add(1)
	go c.readLoop()

	return c, nil
}

func clientPort(u *base.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	return strconv.Itoa(defaultRTSPPort)
}

// parseClientURL accepts the bare rtsp://host[:port]/path form the teacher
// parser also accepts, with an implied port of 554.
func parseClientURL(s string) (*base.URL, error) {
	if !strings.HasPrefix(s, "rtsp://") && !strings.HasPrefix(s, "rtsps://") {
		return nil, fmt.Errorf("abrtsp: unsupported url %q", s)
	}
	return base.ParseURL(s)
}

func (c *Client) nextCSeq() base.HeaderValue {
	c.seq++
	return base.HeaderValue{strconv.Itoa(c.seq)}
}

func (c *Client) do(req *base.Request) (*base.Response, error) {
	if req.Header == nil {
		req.Header = base.Header{}
	}
	req.Header["CSeq"] = c.nextCSeq()
	if c.session != "" {
		req.Header["Session"] = headers.Session{Session: c.session}.Write()
	}

	if err := req.Write(c.bw); err != nil {
		return nil, err
	}

	var res base.Response
	if err := res.Read(c.br); err != nil {
		return nil, err
	}

	return &res, nil
}

func (c *Client) handshake() error {
	if _, err := c.do(&base.Request{Method: base.Options, URL: c.url}); err != nil {
		return fmt.Errorf("abrtsp: OPTIONS: %w", err)
	}

	if _, err := c.do(&base.Request{Method: base.Describe, URL: c.url}); err != nil {
		return fmt.Errorf("abrtsp: DESCRIBE: %w", err)
	}

	setupURL := c.url.Clone()
	setupURL.Path = strings.TrimSuffix(setupURL.Path, "/") + "/" + trackControl

	th := headers.Transport{
		Protocol:       headers.TransportProtocolTCP,
		InterleavedIDs: &[2]int{0, 1},
	}
	setupRes, err := c.do(&base.Request{
		Method: base.Setup,
		URL:    setupURL,
		Header: base.Header{"Transport": th.Write()},
	})
	if err != nil {
		return fmt.Errorf("abrtsp: SETUP: %w", err)
	}

	sessionHV, ok := setupRes.Header["Session"]
	if !ok || len(sessionHV) != 1 {
		return liberrors.ErrClientSessionHeaderInvalid{}
	}
	var sh headers.Session
	if err := sh.Read(sessionHV); err != nil {
		return liberrors.ErrClientSessionHeaderInvalid{}
	}
	c.session = sh.Session

	if _, err := c.do(&base.Request{Method: base.Play, URL: c.url}); err != nil {
		return fmt.Errorf("abrtsp: PLAY: %w", err)
	}

	return nil
}

// readLoop decodes RTP/H264 off the control connection's channel-0 stream
// and delivers each reassembled NAL unit to onFrame as Annex-B bytes.
func (c *Client) readLoop() {
	defer c.readerWg.Done()

	dec := rtph264.NewDecoder(&interleavedRTPReader{
		conn:        c.conn,
		br:          c.br,
		readTimeout: c.conf.ReadTimeout,
	})

	for {
		select {
		case <-c.quit:
			return
		default:
		}

		nalus, err := dec.Read()
		if err != nil {
			select {
			case <-c.quit:
				return
			default:
			}

			if isTimeout(err) {
				c.conf.Logger.Warnf("abrtsp: %v", liberrors.ErrClientTCPTimeout{})
				continue
			}

			if !errors.Is(err, io.EOF) {
				c.conf.Logger.Warnf("interleaved read: %v", err)
			}
			return
		}

		for _, nalu := range nalus {
			out, err := h264.AnnexBMarshal([][]byte{nalu})
			if err != nil {
				c.conf.Logger.Warnf("annex-b marshal: %v", err)
				continue
			}
			c.onFrame(out)
		}
	}
}

// Close sends TEARDOWN and releases the connection.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.quit)

		// force the reader goroutine's blocked Read to return so it stops
		// touching c.br before the TEARDOWN request/response round trip.
		c.conn.SetReadDeadline(time.Now()) //nolint:errcheck
		c.readerWg.Wait()
		c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck

		if c.session != "" {
			_, _ = c.do(&base.Request{Method: base.Teardown, URL: c.url})
		}

		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
