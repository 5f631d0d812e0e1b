package base

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var casesRequest = []struct {
	name string
	byts []byte
	req  Request
}{
	{
		"options",
		[]byte("OPTIONS rtsp://example.com/media.mp4 RTSP/1.0\r\n" +
			"CSeq: 1\r\n" +
			"Proxy-Require: gzipped-messages\r\n" +
			"Require: implicit-play\r\n" +
			"\r\n"),
		Request{
			Method: Options,
			URL:    mustParseURL("rtsp://example.com/media.mp4"),
			Header: Header{
				"CSeq":          HeaderValue{"1"},
				"Require":       HeaderValue{"implicit-play"},
				"Proxy-Require": HeaderValue{"gzipped-messages"},
			},
		},
	},
	{
		"describe",
		[]byte("DESCRIBE rtsp://example.com/media.mp4 RTSP/1.0\r\n" +
			"Accept: application/sdp\r\n" +
			"CSeq: 2\r\n" +
			"\r\n"),
		Request{
			Method: Describe,
			URL:    mustParseURL("rtsp://example.com/media.mp4"),
			Header: Header{
				"Accept": HeaderValue{"application/sdp"},
				"CSeq":   HeaderValue{"2"},
			},
		},
	},
	{
		"describe with special chars",
		[]byte("DESCRIBE rtsp://192.168.1.99:554/user=tmp&password=BagRep1!&channel=1&stream=0.sdp RTSP/1.0\r\n" +
			"Accept: application/sdp\r\n" +
			"CSeq: 3\r\n" +
			"\r\n"),
		Request{
			Method: Describe,
			URL:    mustParseURL("rtsp://192.168.1.99:554/user=tmp&password=BagRep1!&channel=1&stream=0.sdp"),
			Header: Header{
				"Accept": HeaderValue{"application/sdp"},
				"CSeq":   HeaderValue{"3"},
			},
		},
	},
	{
		"setup",
		[]byte("SETUP rtsp://example.com/media.mp4/trackID=0 RTSP/1.0\r\n" +
			"CSeq: 4\r\n" +
			"Transport: RTP/AVP/TCP;unicast;interleaved=0-1\r\n" +
			"\r\n"),
		Request{
			Method: Setup,
			URL:    mustParseURL("rtsp://example.com/media.mp4/trackID=0"),
			Header: Header{
				"CSeq":      HeaderValue{"4"},
				"Transport": HeaderValue{"RTP/AVP/TCP;unicast;interleaved=0-1"},
			},
		},
	},
	{
		"play",
		[]byte("PLAY rtsp://example.com/media.mp4 RTSP/1.0\r\n" +
			"CSeq: 5\r\n" +
			"Session: 645252166\r\n" +
			"\r\n"),
		Request{
			Method: Play,
			URL:    mustParseURL("rtsp://example.com/media.mp4"),
			Header: Header{
				"CSeq":    HeaderValue{"5"},
				"Session": HeaderValue{"645252166"},
			},
		},
	},
	{
		"teardown",
		[]byte("TEARDOWN rtsp://example.com/media.mp4 RTSP/1.0\r\n" +
			"CSeq: 6\r\n" +
			"Session: 645252166\r\n" +
			"\r\n"),
		Request{
			Method: Teardown,
			URL:    mustParseURL("rtsp://example.com/media.mp4"),
			Header: Header{
				"CSeq":    HeaderValue{"6"},
				"Session": HeaderValue{"645252166"},
			},
		},
	},
}

func TestRequestRead(t *testing.T) {
	for _, ca := range casesRequest {
		t.Run(ca.name, func(t *testing.T) {
			var req Request
			err := req.Read(bufio.NewReader(bytes.NewBuffer(ca.byts)))
			require.NoError(t, err)
			require.Equal(t, ca.req.Method, req.Method)
			require.Equal(t, ca.req.URL, req.URL)
			require.Equal(t, ca.req.Header, req.Header)
		})
	}
}

func TestRequestWrite(t *testing.T) {
	for _, ca := range casesRequest {
		t.Run(ca.name, func(t *testing.T) {
			var buf bytes.Buffer
			bw := bufio.NewWriter(&buf)
			err := ca.req.Write(bw)
			require.NoError(t, err)
			require.Equal(t, ca.byts, buf.Bytes())
		})
	}
}

func TestRequestEmptyMethod(t *testing.T) {
	var req Request
	err := req.Read(bufio.NewReader(bytes.NewBuffer([]byte(" rtsp://example.com/ RTSP/1.0\r\n\r\n"))))
	require.Error(t, err)
}

func FuzzRequestRead(f *testing.F) {
	f.Add([]byte("GET rtsp://testing123/test"))
	f.Add([]byte("GET rtsp://testing123/test RTSP/1.0\r\n"))
	f.Add([]byte("OPTIONS rtsp://example.com/media.mp4 RTSP/1.0\r\n" +
		"Content-Length: 100\r\n" +
		"\r\n" +
		"testing"))

	f.Fuzz(func(t *testing.T, b []byte) {
		var req Request
		req.Read(bufio.NewReader(bytes.NewBuffer(b)))
	})
}
