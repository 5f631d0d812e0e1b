package abrtsp

import (
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"time"

	psdp "github.com/pion/sdp/v3"

	"github.com/fancong5201314/abrtsp/pkg/base"
	"github.com/fancong5201314/abrtsp/pkg/headers"
)

// rtspEngine turns incoming requests into responses. It owns no sockets of
// its own; the event loop feeds it bytes already framed into base.Request
// values and writes back whatever response it returns.
type rtspEngine struct {
	registry *sessionRegistry
	logger   Logger

	fixedToken string
	rtpPort    int
	rtcpPort   int

	track *trackInfo
}

// trackInfo is the most recently observed SPS/PPS pair, used to answer
// DESCRIBE before the first access unit has even arrived (in which case
// DESCRIBE reports an empty fmtp, matching a camera that has not started
// encoding yet).
type trackInfo struct {
	mu  sync.RWMutex
	sps []byte
	pps []byte
}

func (t *trackInfo) setSPS(v []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sps = v
}

func (t *trackInfo) setPPS(v []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pps = v
}

func (t *trackInfo) get() (sps, pps []byte) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sps, t.pps
}

const trackControl = "track0"

func cseqOf(req *base.Request) (base.HeaderValue, bool) {
	v, ok := req.Header["CSeq"]
	return v, ok && len(v) == 1
}

func errorResponse(code base.StatusCode) *base.Response {
	return &base.Response{StatusCode: code, Header: base.Header{}}
}

// handle dispatches one request for the given session and returns the
// response to write back. It mutates s in place (transport negotiation,
// play state) under the registry lock.
func (e *rtspEngine) handle(s *clientSession, req *base.Request) *base.Response {
	cseq, ok := cseqOf(req)
	if !ok {
		return errorResponse(base.StatusBadRequest)
	}

	res := e.dispatch(s, req)
	if res.Header == nil {
		res.Header = base.Header{}
	}
	res.Header["CSeq"] = cseq

	return res
}

func (e *rtspEngine) dispatch(s *clientSession, req *base.Request) *base.Response {
	switch req.Method {
	case base.Options:
		return e.onOptions()

	case base.Describe:
		return e.onDescribe(req)

	case base.Setup:
		return e.onSetup(s, req)

	case base.Play:
		return e.onPlay(s, req)

	case base.Teardown:
		return e.onTeardown(s, req)

	default:
		return errorResponse(base.StatusOptionNotSupported)
	}
}

func (e *rtspEngine) onOptions() *base.Response {
	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Public": base.HeaderValue{strings.Join([]string{
				string(base.Options),
				string(base.Describe),
				string(base.Setup),
				string(base.Play),
				string(base.Teardown),
			}, ", ")},
		},
	}
}

func (e *rtspEngine) onDescribe(req *base.Request) *base.Response {
	host := req.URL.Hostname()
	if host == "" {
		host = "0.0.0.0"
	}

	sd := e.buildSDP(host)
	body, err := sd.Marshal()
	if err != nil {
		e.logger.Errorf("failed to marshal SDP: %v", err)
		return errorResponse(base.StatusInternalServerError)
	}

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{"application/sdp"},
			"Content-Base": base.HeaderValue{req.URL.String()},
		},
		Body: body,
	}
}

func (e *rtspEngine) buildSDP(host string) *psdp.SessionDescription {
	payloadType := uint8(rtpPayloadType)
	fmtp := strconv.Itoa(int(payloadType))

	var sps, pps []byte
	if e.track != nil {
		sps, pps = e.track.get()
	}

	var extra []string
	if sps != nil && pps != nil {
		extra = append(extra, "packetization-mode=1")
		extra = append(extra, "sprop-parameter-sets="+
			base64.StdEncoding.EncodeToString(sps)+","+
			base64.StdEncoding.EncodeToString(pps))
	}
	if len(extra) > 0 {
		fmtp += " " + strings.Join(extra, "; ")
	}

	originID, err := strconv.ParseUint("9"+strconv.FormatInt(time.Now().Unix(), 10), 10, 64)
	if err != nil {
		originID = 9
	}

	return &psdp.SessionDescription{
		Version: 0,
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      originID,
			SessionVersion: 1,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: host,
		},
		SessionName: "live",
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
		Attributes: []psdp.Attribute{
			{Key: "control", Value: "*"},
		},
		MediaDescriptions: []*psdp.MediaDescription{
			{
				MediaName: psdp.MediaName{
					Media:   "video",
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{strconv.Itoa(int(payloadType))},
				},
				Attributes: []psdp.Attribute{
					{Key: "rtpmap", Value: strconv.Itoa(int(payloadType)) + " H264/90000"},
					{Key: "fmtp", Value: fmtp},
					{Key: "control", Value: trackControl},
				},
			},
		},
	}
}

func (e *rtspEngine) onSetup(s *clientSession, req *base.Request) *base.Response {
	var th headers.Transport
	if err := th.Read(req.Header["Transport"]); err != nil {
		return errorResponse(base.StatusBadRequest)
	}

	switch {
	case th.Protocol == headers.TransportProtocolTCP:
		if th.InterleavedIDs == nil {
			return errorResponse(base.StatusBadRequest)
		}
		s.mode = InterleavedTcp
		s.rtpChannel = th.InterleavedIDs[0]
		s.rtcpChannel = th.InterleavedIDs[1]

	default:
		if th.ClientPorts == nil {
			return errorResponse(base.StatusBadRequest)
		}
		s.mode = Udp
		s.rtpPort = th.ClientPorts[0]
		s.rtcpPort = th.ClientPorts[1]
	}

	s.token = newSessionToken(e.fixedToken)

	resTh := th
	switch s.mode {
	case InterleavedTcp:
		resTh.InterleavedIDs = &[2]int{s.rtpChannel, s.rtcpChannel}

	case Udp:
		resTh.ServerPorts = &[2]int{e.rtpPort, e.rtcpPort}
	}

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Transport": resTh.Write(),
			"Session":   headers.Session{Session: s.token}.Write(),
		},
	}
}

func (e *rtspEngine) onPlay(s *clientSession, req *base.Request) *base.Response {
	var sh headers.Session
	if err := sh.Read(req.Header["Session"]); err != nil || sh.Session != s.token {
		return errorResponse(base.StatusSessionNotFound)
	}

	if s.mode == Undecided {
		return errorResponse(base.StatusMethodNotValidInThisState)
	}

	s.playing = true

	rng := headers.Range{Value: &headers.RangeNPT{Start: 0}}
	timeout := uint(60)

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Session": headers.Session{Session: s.token, Timeout: &timeout}.Write(),
			"Range":   rng.Write(),
		},
	}
}

func (e *rtspEngine) onTeardown(s *clientSession, req *base.Request) *base.Response {
	var sh headers.Session
	if err := sh.Read(req.Header["Session"]); err != nil || sh.Session != s.token {
		return errorResponse(base.StatusSessionNotFound)
	}

	s.playing = false
	s.closed = true

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Session": headers.Session{Session: s.token}.Write(),
		},
	}
}

