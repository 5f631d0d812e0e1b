package abrtsp

import "time"

const (
	defaultRTSPPort    = 554
	defaultRTPPort     = 20001
	defaultRTCPPort    = 20002
	defaultFrameRate   = 25
	defaultReadTimeout = 50 * time.Millisecond
	defaultRTCPPeriod  = 5 * time.Second
)

// ServerConf configures a Server. The zero value is defaulted by New.
type ServerConf struct {
	// RTSPAddr is the address the RTSP control listener binds to.
	// Defaults to ":554".
	RTSPAddr string

	// RTPPort is the fixed UDP port used for outgoing RTP packets.
	// Defaults to 20001.
	RTPPort int

	// RTCPPort is the fixed UDP port used for outgoing RTCP packets.
	// Defaults to 20002 (RTPPort + 1).
	RTCPPort int

	// FrameRate is the nominal frame rate used to advance the 90kHz RTP
	// timestamp by 90000/FrameRate after every NAL unit other than SPS and
	// PPS. Defaults to 25.
	FrameRate int

	// SSRC is the RTP synchronization source identifier. Defaults to a
	// random value chosen at construction.
	SSRC *uint32

	// FixedSessionToken pins every client session to this token instead of
	// generating a random one per session. Intended for deterministic
	// tests.
	FixedSessionToken string

	// ReadTimeout bounds each per-connection read attempt in the event
	// loop. Defaults to 50ms.
	ReadTimeout time.Duration

	// RTCPSenderReportPeriod is the interval between outbound RTCP sender
	// reports per playing client. Defaults to 5s.
	RTCPSenderReportPeriod time.Duration

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger Logger
}

func (c *ServerConf) setDefaults() {
	if c.RTSPAddr == "" {
		c.RTSPAddr = ":554"
	}
	if c.RTPPort == 0 {
		c.RTPPort = defaultRTPPort
	}
	if c.RTCPPort == 0 {
		c.RTCPPort = c.RTPPort + 1
	}
	if c.FrameRate == 0 {
		c.FrameRate = defaultFrameRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.RTCPSenderReportPeriod == 0 {
		c.RTCPSenderReportPeriod = defaultRTCPPeriod
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}

// ClientConf configures a Client.
type ClientConf struct {
	// ReadTimeout bounds each receive-loop read. Defaults to 10s.
	ReadTimeout time.Duration

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger Logger
}

func (c *ClientConf) setDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}

// ClientOption configures a Client constructed with NewClient.
type ClientOption func(*ClientConf)

// WithLogger sets the client's logger.
func WithLogger(l Logger) ClientOption {
	return func(c *ClientConf) {
		c.Logger = l
	}
}

// WithReadTimeout sets the client's receive-loop read timeout.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *ClientConf) {
		c.ReadTimeout = d
	}
}
