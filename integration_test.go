package abrtsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestServerClientRoundTrip starts a real Server, pulls from it with a real
// Client over loopback TCP, and verifies that NAL units fed into Send
// arrive at the client's callback as Annex-B bytes, fragmented and
// reassembled correctly across both the single-NAL-unit and FU-A paths.
func TestServerClientRoundTrip(t *testing.T) {
	srv, err := New(ServerConf{
		RTSPAddr:          "127.0.0.1:0",
		RTPPort:           30102,
		RTCPPort:          30103,
		FixedSessionToken: "test-session",
		ReadTimeout:       5 * time.Millisecond,
	})
	require.NoError(t, err)
	defer srv.Close()

	addr := srv.listener.Addr().String()

	received := make(chan []byte, 16)
	cl, err := NewClient("rtsp://"+addr+"/live", func(b []byte) {
		cp := append([]byte(nil), b...)
		received <- cp
	})
	require.NoError(t, err)
	defer cl.Close()

	// let PLAY settle before the publisher starts pushing.
	time.Sleep(20 * time.Millisecond)

	small := append([]byte{0x65}, make([]byte, 50)...)
	_, err = srv.Send(append([]byte{0x00, 0x00, 0x00, 0x01}, small...))
	require.NoError(t, err)
	_, err = srv.Send(nil)
	require.NoError(t, err)

	select {
	case got := <-received:
		require.Equal(t, byte(0x00), got[0])
		require.Equal(t, byte(0x01), got[3])
		require.Equal(t, small, got[4:])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for single-NAL-unit frame")
	}

	large := append([]byte{0x65}, make([]byte, 3500)...)
	_, err = srv.Send(append([]byte{0x00, 0x00, 0x00, 0x01}, large...))
	require.NoError(t, err)
	_, err = srv.Send(nil)
	require.NoError(t, err)

	select {
	case got := <-received:
		require.Equal(t, large, got[4:])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reassembled FU-A frame")
	}

	sps := []byte{0x67, 0x42, 0x00, 0x1e}
	_, err = srv.Send(append([]byte{0x00, 0x00, 0x00, 0x01}, sps...))
	require.NoError(t, err)
	_, err = srv.Send(nil)
	require.NoError(t, err)

	select {
	case got := <-received:
		require.Equal(t, sps, got[4:])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SPS frame over RTP")
	}
}
