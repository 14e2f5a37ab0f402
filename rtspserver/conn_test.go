package rtspserver

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/headers"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

// dialServer wires srv's connection handler directly to an in-memory
// net.Pipe, avoiding any dependency on OS port allocation.
func dialServer(t *testing.T, srv *Server) (net.Conn, *bufio.Reader, func()) {
	t.Helper()
	client, server := net.Pipe()
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		srv.handleConn(server)
	}()
	return client, bufio.NewReader(client), func() {
		client.Close()
		srv.Close(time.Second)
	}
}

func sendRequest(t *testing.T, conn net.Conn, rb *bufio.Reader, method base.Method, url string, h *base.Header) *base.Response {
	t.Helper()
	u, err := base.Parse(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if h == nil {
		h = base.NewHeader()
	}
	req := &base.Request{Method: method, URL: u, Header: h}
	if _, err := conn.Write(req.Marshal()); err != nil {
		t.Fatalf("write request: %v", err)
	}
	resp, err := base.ReadResponse(rb)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp
}

func TestServerOptionsDescribeSetupPlayTeardownTCP(t *testing.T) {
	srv := NewServer(Config{}, nil)
	srv.AddPath(NewPathConfig("cam1", media.CodecH264, 640, 480, 30))

	conn, rb, closeAll := dialServer(t, srv)
	defer closeAll()

	base1 := "rtsp://" + conn.RemoteAddr().String() + "/cam1"

	if resp := sendRequest(t, conn, rb, base.Options, base1, nil); resp.StatusCode != base.StatusOK {
		t.Fatalf("OPTIONS: expected 200, got %d", resp.StatusCode)
	}

	descResp := sendRequest(t, conn, rb, base.Describe, base1, nil)
	if descResp.StatusCode != base.StatusOK {
		t.Fatalf("DESCRIBE: expected 200, got %d", descResp.StatusCode)
	}
	if len(descResp.Body) == 0 {
		t.Fatal("DESCRIBE: expected a non-empty SDP body")
	}

	setupHeader := base.NewHeader()
	setupHeader.Set("Transport", headers.Transport{
		Protocol:       headers.ProtocolTCP,
		InterleavedIDs: &[2]int{0, 1},
	}.Marshal()[0])
	setupResp := sendRequest(t, conn, rb, base.Setup, base1+"/trackID=0", setupHeader)
	if setupResp.StatusCode != base.StatusOK {
		t.Fatalf("SETUP: expected 200, got %d", setupResp.StatusCode)
	}
	sessionID := setupResp.Header.Get("Session")
	if sessionID == "" {
		t.Fatal("SETUP: expected a Session header in the response")
	}

	sessHeader := func() *base.Header {
		h := base.NewHeader()
		h.Set("Session", sessionID)
		return h
	}

	if resp := sendRequest(t, conn, rb, base.Play, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("PLAY: expected 200, got %d", resp.StatusCode)
	}

	// PLAY is idempotent: a second PLAY while already PLAYING is a no-op 200.
	if resp := sendRequest(t, conn, rb, base.Play, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("second PLAY: expected 200, got %d", resp.StatusCode)
	}

	if resp := sendRequest(t, conn, rb, base.Pause, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("PAUSE: expected 200, got %d", resp.StatusCode)
	}

	if resp := sendRequest(t, conn, rb, base.Teardown, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("TEARDOWN: expected 200, got %d", resp.StatusCode)
	}

	// TEARDOWN is idempotent against an already-torn-down session.
	if resp := sendRequest(t, conn, rb, base.Teardown, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("second TEARDOWN: expected 200, got %d", resp.StatusCode)
	}
}

func TestServerPauseIsNoOpAtReady(t *testing.T) {
	srv := NewServer(Config{}, nil)
	srv.AddPath(NewPathConfig("cam1", media.CodecH264, 640, 480, 30))

	conn, rb, closeAll := dialServer(t, srv)
	defer closeAll()

	base1 := "rtsp://" + conn.RemoteAddr().String() + "/cam1"

	setupHeader := base.NewHeader()
	setupHeader.Set("Transport", headers.Transport{
		Protocol:       headers.ProtocolTCP,
		InterleavedIDs: &[2]int{0, 1},
	}.Marshal()[0])
	setupResp := sendRequest(t, conn, rb, base.Setup, base1+"/trackID=0", setupHeader)
	if setupResp.StatusCode != base.StatusOK {
		t.Fatalf("SETUP: expected 200, got %d", setupResp.StatusCode)
	}
	sessHeader := base.NewHeader()
	sessHeader.Set("Session", setupResp.Header.Get("Session"))

	// PAUSE at READY (never PLAYed) is a no-op 200, not an error.
	if resp := sendRequest(t, conn, rb, base.Pause, base1, sessHeader); resp.StatusCode != base.StatusOK {
		t.Fatalf("PAUSE at READY: expected 200, got %d", resp.StatusCode)
	}
}

func TestServerPauseStopsRecordingAndRecordResumesIt(t *testing.T) {
	srv := NewServer(Config{}, nil)

	conn, rb, closeAll := dialServer(t, srv)
	defer closeAll()

	base1 := "rtsp://" + conn.RemoteAddr().String() + "/cam1"

	sdpBody, err := sdp.Build("cam1", 1, nil, sdp.MediaInfo{Codec: sdp.CodecH264, Width: 640, Height: 480, Framerate: 30})
	if err != nil {
		t.Fatalf("sdp.Build: %v", err)
	}
	annReq := &base.Request{Method: base.Announce, URL: mustParseURL(t, base1), Header: base.NewHeader(), Body: sdpBody}
	conn.Write(annReq.Marshal())
	annResp, err := base.ReadResponse(rb)
	if err != nil || annResp.StatusCode != base.StatusOK {
		t.Fatalf("ANNOUNCE: expected 200, got %v (err %v)", annResp, err)
	}

	setupHeader := base.NewHeader()
	recordMode := headers.ModeRecord
	setupHeader.Set("Transport", headers.Transport{
		Protocol:       headers.ProtocolTCP,
		InterleavedIDs: &[2]int{0, 1},
		Mode:           &recordMode,
	}.Marshal()[0])
	setupResp := sendRequest(t, conn, rb, base.Setup, base1+"/trackID=0", setupHeader)
	if setupResp.StatusCode != base.StatusOK {
		t.Fatalf("SETUP: expected 200, got %d", setupResp.StatusCode)
	}
	sessHeader := func() *base.Header {
		h := base.NewHeader()
		h.Set("Session", setupResp.Header.Get("Session"))
		return h
	}

	if resp := sendRequest(t, conn, rb, base.Record, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("RECORD: expected 200, got %d", resp.StatusCode)
	}

	// PAUSE on a RECORDING session must stop ingestion and return to READY.
	if resp := sendRequest(t, conn, rb, base.Pause, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("PAUSE at RECORDING: expected 200, got %d", resp.StatusCode)
	}

	// RECORD from READY resumes ingestion.
	if resp := sendRequest(t, conn, rb, base.Record, base1, sessHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("second RECORD: expected 200, got %d", resp.StatusCode)
	}
}

func mustParseURL(t *testing.T, s string) *base.URL {
	t.Helper()
	u, err := base.Parse(s)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestServerDescribeUnknownPathReturns404(t *testing.T) {
	srv := NewServer(Config{}, nil)
	conn, rb, closeAll := dialServer(t, srv)
	defer closeAll()

	url := "rtsp://" + conn.RemoteAddr().String() + "/missing"
	resp := sendRequest(t, conn, rb, base.Describe, url, nil)
	if resp.StatusCode != base.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServerSetupAggregateNotAllowed(t *testing.T) {
	srv := NewServer(Config{}, nil)
	srv.AddPath(NewPathConfig("cam1", media.CodecH264, 0, 0, 0))
	conn, rb, closeAll := dialServer(t, srv)
	defer closeAll()

	base1 := "rtsp://" + conn.RemoteAddr().String() + "/cam1"
	setupHeader := func() *base.Header {
		h := base.NewHeader()
		h.Set("Transport", headers.Transport{Protocol: headers.ProtocolTCP, InterleavedIDs: &[2]int{0, 1}}.Marshal()[0])
		return h
	}

	if resp := sendRequest(t, conn, rb, base.Setup, base1+"/trackID=0", setupHeader()); resp.StatusCode != base.StatusOK {
		t.Fatalf("first SETUP: expected 200, got %d", resp.StatusCode)
	}
	if resp := sendRequest(t, conn, rb, base.Setup, base1+"/trackID=0", setupHeader()); resp.StatusCode != base.StatusAggregateOperationNotAllowed {
		t.Fatalf("second SETUP: expected 459, got %d", resp.StatusCode)
	}
}
