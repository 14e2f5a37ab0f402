package rtspserver

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/frame"
	"github.com/oxflow/rtspflow/pkg/headers"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

const trackControl = "trackID=0"

// pathNameFromURL strips a trailing "/trackID=0" control suffix, if
// present, from a request URL's path (spec.md §4.1: the control URL is
// the path plus trackID, matched as one unit against the registry).
func pathNameFromURL(u *base.URL) string {
	return strings.TrimSuffix(u.Path(), "/"+trackControl)
}

func (ch *connHandler) handleOptions(req *base.Request) {
	h := base.NewHeader()
	h.Set("Public", "OPTIONS, DESCRIBE, ANNOUNCE, SETUP, PLAY, PAUSE, RECORD, GET_PARAMETER, SET_PARAMETER, TEARDOWN")
	ch.writeResponse(req, base.StatusOK, h, nil)
}

func (ch *connHandler) handleDescribe(req *base.Request) {
	name := pathNameFromURL(req.URL)
	mp, ok := ch.srv.path(name)
	if !ok {
		ch.writeResponse(req, base.StatusNotFound, nil, nil)
		return
	}

	info := mp.Config.mediaInfo(payloadTypeFor(mp.Config.Codec), trackControl)
	body, err := sdp.Build(name, sessionIDSeed(), localIP(ch.conn), info)
	if err != nil {
		ch.writeResponse(req, base.StatusInternalServerError, nil, nil)
		return
	}

	h := base.NewHeader()
	h.Set("Content-Base", req.URL.RequestURI()+"/")
	h.Set("Content-Type", "application/sdp")
	ch.writeResponse(req, base.StatusOK, h, body)
}

func payloadTypeFor(c media.Codec) uint8 {
	if c == media.CodecH265 {
		return sdp.PayloadTypeH265
	}
	return sdp.PayloadTypeH264
}

func mediaCodec(c sdp.Codec) media.Codec {
	if c == sdp.CodecH265 {
		return media.CodecH265
	}
	return media.CodecH264
}

func localIP(conn net.Conn) net.IP {
	host, _, err := net.SplitHostPort(conn.LocalAddr().String())
	if err != nil {
		return net.IPv4zero
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return net.IPv4zero
	}
	return ip
}

func sessionIDSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint64(b[:])
}

func sessionSSRC() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

// handleAnnounce registers the announced path's media description so a
// subsequent SETUP/RECORD dialog can create a session against it
// (spec.md §4.1, §4.6: publisher-initiated path creation).
func (ch *connHandler) handleAnnounce(req *base.Request) {
	info, err := sdp.Parse(req.Body)
	if err != nil {
		ch.writeResponse(req, base.StatusBadRequest, nil, nil)
		return
	}

	name := pathNameFromURL(req.URL)
	pc := NewPathConfig(name, mediaCodec(info.Codec), info.Width, info.Height, info.Framerate)
	ch.srv.AddPath(pc)
	ch.announcedPath = pc

	ch.writeResponse(req, base.StatusOK, nil, nil)
}

// handleSetup negotiates a transport (UDP pair or TCP-interleaved) and
// creates the connection's one ClientSession (spec.md §4.6: no
// aggregate SETUP; one session per connection).
func (ch *connHandler) handleSetup(req *base.Request) {
	if ch.session != nil {
		ch.writeResponse(req, base.StatusAggregateOperationNotAllowed, nil, nil)
		return
	}

	name := pathNameFromURL(req.URL)
	mp, ok := ch.srv.path(name)
	if !ok {
		ch.writeResponse(req, base.StatusNotFound, nil, nil)
		return
	}

	var tr headers.Transport
	if err := tr.Unmarshal(req.Header.Values("Transport")); err != nil {
		ch.writeResponse(req, base.StatusUnsupportedTransport, nil, nil)
		return
	}

	mode := headers.ModePlay
	if tr.Mode != nil {
		mode = *tr.Mode
	}

	s := &ClientSession{
		ID:           newSessionID(),
		Path:         name,
		Mode:         mode,
		queue:        make(chan *media.VideoFrame, ch.srv.cfg.QueueSize),
		queueSize:    ch.srv.cfg.QueueSize,
		rtcpInterval: ch.srv.cfg.SenderRTCPInterval,
		pathConfig:   mp.Config,
		mediaPath:    mp,
		log:          ch.srv.log,
		ssrc:         sessionSSRC(),
		payloadType:  payloadTypeFor(mp.Config.Codec),
	}
	s.assembler = frame.New(frame.Config{
		Codec:            mp.Config.Codec,
		Width:            mp.Config.Width,
		Height:           mp.Config.Height,
		FPS:              mp.Config.FPS,
		JitterBufferSize: ch.srv.cfg.JitterBufferPackets,
	})
	s.rtcpCounters.SSRC = s.ssrc

	respTr := headers.Transport{Mode: tr.Mode}

	switch tr.Protocol {
	case headers.ProtocolTCP:
		if tr.InterleavedIDs == nil {
			ch.writeResponse(req, base.StatusUnsupportedTransport, nil, nil)
			return
		}
		s.transport = TransportTCP
		s.interleaved = [2]uint8{uint8(tr.InterleavedIDs[0]), uint8(tr.InterleavedIDs[1])}
		s.writeLocked = ch.write
		respTr.Protocol = headers.ProtocolTCP
		respTr.InterleavedIDs = tr.InterleavedIDs

	default:
		if tr.ClientPorts == nil {
			ch.writeResponse(req, base.StatusUnsupportedTransport, nil, nil)
			return
		}
		remoteHost, _, _ := net.SplitHostPort(ch.conn.RemoteAddr().String())
		remoteIP := net.ParseIP(remoteHost)
		rtpConn, rtcpConn, serverPorts, err := allocateUDPPair(localIP(ch.conn), remoteIP, tr.ClientPorts, ch.srv.cfg.RTPPortStart, ch.srv.cfg.RTPPortEnd)
		if err != nil {
			ch.writeResponse(req, base.StatusInternalServerError, nil, nil)
			return
		}
		s.transport = TransportUDP
		s.udp = &udpEndpoints{rtpConn: rtpConn, rtcpConn: rtcpConn}
		respTr.Protocol = headers.ProtocolUDP
		respTr.ClientPorts = tr.ClientPorts
		respTr.ServerPorts = serverPorts
	}

	s.setState(StateReady)
	s.touch()
	mp.addSession(s)
	ch.session = s

	h := base.NewHeader()
	h.Set("Transport", respTr.Marshal()[0])
	h.Set("Session", (headers.Session{ID: s.ID}).Marshal()[0])
	ch.writeResponse(req, base.StatusOK, h, nil)
}

// allocateUDPPair binds a fresh, consecutive even/odd server-side UDP
// port pair in [start, end], then connects each socket to the matching
// client port so later writes don't need to specify an address (spec.md
// §4.6, §6: "rtp_port_range").
func allocateUDPPair(localIP, peerIP net.IP, clientPorts *[2]int, start, end int) (*net.UDPConn, *net.UDPConn, *[2]int, error) {
	for p := start; p+1 <= end; p += 2 {
		rtpConn, err := net.DialUDP("udp", &net.UDPAddr{IP: localIP, Port: p}, &net.UDPAddr{IP: peerIP, Port: clientPorts[0]})
		if err != nil {
			continue
		}
		rtcpConn, err := net.DialUDP("udp", &net.UDPAddr{IP: localIP, Port: p + 1}, &net.UDPAddr{IP: peerIP, Port: clientPorts[1]})
		if err != nil {
			rtpConn.Close()
			continue
		}
		return rtpConn, rtcpConn, &[2]int{p, p + 1}, nil
	}
	return nil, nil, nil, fmt.Errorf("no free UDP port pair in [%d, %d]", start, end)
}

func (ch *connHandler) matchSession(req *base.Request) (*ClientSession, bool) {
	s := ch.session
	if s == nil {
		return nil, false
	}
	var sh headers.Session
	if err := sh.Unmarshal(req.Header.Values("Session")); err != nil || sh.ID != s.ID {
		return nil, false
	}
	return s, true
}

// handlePlay starts or resumes the egress sender. Idempotent: a second
// PLAY while already PLAYING is a no-op 200 (spec.md §4.6).
func (ch *connHandler) handlePlay(req *base.Request) {
	s, ok := ch.matchSession(req)
	if !ok {
		ch.writeResponse(req, base.StatusSessionNotFound, nil, nil)
		return
	}
	if s.Mode == headers.ModeRecord {
		ch.writeResponse(req, base.StatusMethodNotValidInThisState, nil, nil)
		return
	}

	switch s.State() {
	case StateReady, StatePlaying:
	default:
		ch.writeResponse(req, base.StatusMethodNotValidInThisState, nil, nil)
		return
	}

	s.setState(StatePlaying)
	s.touch()
	s.startSender()
	s.mediaPath.primeWithCachedIDR(s, s.queueSize)

	ch.writeResponse(req, base.StatusOK, nil, nil)
}

// handlePause stops the active sender or receiver without tearing the
// session down, leaving it in READY so a later PLAY or RECORD resumes
// it (spec.md §4.6: READY's PAUSE is a no-op, PLAYING and RECORDING
// both transition PAUSE → READY).
func (ch *connHandler) handlePause(req *base.Request) {
	s, ok := ch.matchSession(req)
	if !ok {
		ch.writeResponse(req, base.StatusSessionNotFound, nil, nil)
		return
	}

	switch s.State() {
	case StateReady:
		// no-op
	case StatePlaying:
		s.pauseSender()
		s.setState(StateReady)
	case StateRecording:
		s.pauseReceiver()
		s.setState(StateReady)
	default:
		ch.writeResponse(req, base.StatusMethodNotValidInThisState, nil, nil)
		return
	}

	s.touch()
	ch.writeResponse(req, base.StatusOK, nil, nil)
}

// handleRecord starts the ingestion receiver for a publisher session
// (spec.md §4.6).
func (ch *connHandler) handleRecord(req *base.Request) {
	s, ok := ch.matchSession(req)
	if !ok {
		ch.writeResponse(req, base.StatusSessionNotFound, nil, nil)
		return
	}
	if s.Mode != headers.ModeRecord {
		ch.writeResponse(req, base.StatusMethodNotValidInThisState, nil, nil)
		return
	}
	switch s.State() {
	case StateReady, StateRecording:
	default:
		ch.writeResponse(req, base.StatusMethodNotValidInThisState, nil, nil)
		return
	}

	s.setState(StateRecording)
	s.touch()
	s.startReceiver()

	ch.writeResponse(req, base.StatusOK, nil, nil)
}

// handleKeepalive services GET_PARAMETER/SET_PARAMETER, which spec.md
// §4.6 uses only to refresh session liveness; neither parameter body is
// interpreted.
func (ch *connHandler) handleKeepalive(req *base.Request) {
	s, ok := ch.matchSession(req)
	if !ok {
		ch.writeResponse(req, base.StatusSessionNotFound, nil, nil)
		return
	}
	s.touch()
	ch.writeResponse(req, base.StatusOK, nil, nil)
}

// handleTeardown always succeeds, even against an unknown or mismatched
// Session header, and is idempotent (spec.md §4.6).
func (ch *connHandler) handleTeardown(req *base.Request) {
	s := ch.session
	if s != nil {
		if mp, ok := ch.srv.path(s.Path); ok {
			mp.removeSession(s.ID)
		}
		s.stop()
		ch.session = nil
	}

	// A path this connection created via ANNOUNCE has no source once its
	// publisher tears down; remove it so subscribers don't DESCRIBE a
	// path that will never receive another frame.
	if ch.announcedPath != nil {
		ch.srv.RemovePath(ch.announcedPath.Path)
		ch.announcedPath = nil
	}

	ch.writeResponse(req, base.StatusOK, nil, nil)
}
