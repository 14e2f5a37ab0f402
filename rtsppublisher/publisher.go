package rtsppublisher

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/codec/h264"
	"github.com/oxflow/rtspflow/pkg/codec/h265"
	"github.com/oxflow/rtspflow/pkg/digestauth"
	"github.com/oxflow/rtspflow/pkg/headers"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtcpsr"
	"github.com/oxflow/rtspflow/pkg/rtsperrors"
	"github.com/oxflow/rtspflow/pkg/rtsplog"
	"github.com/oxflow/rtspflow/pkg/rtppkt"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

const trackControl = "trackID=0"

// maxAuthRetries bounds the 401 challenge/response cycle within a single
// top-level call (Announce/Setup/...): one retry for the initial
// challenge, plus one more if the server reports the nonce stale on the
// first retry (spec.md §4.5's auth_retries counter, §9 "after the
// second 401" escalation).
const maxAuthRetries = 2

type transportKind int

const (
	transportUDP transportKind = iota
	transportTCP
)

type udpEndpoints struct {
	rtpConn  *net.UDPConn
	rtcpConn *net.UDPConn
}

// Publisher drives the outbound ANNOUNCE/SETUP/RECORD dialog for one
// video track and pushes packetized frames to the remote sink.
type Publisher struct {
	cfg Config
	log rtsplog.Logger

	announceURL *base.URL

	conn    net.Conn
	rb      *bufio.Reader
	writeMu sync.Mutex

	cseq        uint64
	sessionID   string
	sender      *digestauth.Sender
	authRetries int

	transport   transportKind
	udp         *udpEndpoints
	interleaved [2]uint8

	payloadType   uint8
	ssrc          uint32
	seq           uint16
	counters      rtcpsr.Counters
	sincePacketSR int

	stopCh    chan struct{}
	closeOnce sync.Once
}

// Dial opens the TCP control connection to the sink.
func Dial(cfg Config, logger rtsplog.Func) (*Publisher, error) {
	cfg.defaults()

	u, err := base.Parse(cfg.URL)
	if err != nil {
		return nil, &rtsperrors.ProtocolError{Reason: "invalid RTSP URL", Err: err}
	}

	addr := fmt.Sprintf("%s:%d", u.Host(), u.Port())
	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, &rtsperrors.TransportError{Op: "dial", Err: err}
	}

	return &Publisher{
		cfg:         cfg,
		log:         rtsplog.New(logger),
		announceURL: u,
		conn:        conn,
		rb:          bufio.NewReader(conn),
		ssrc:        randomSSRC(),
		payloadType: payloadTypeFor(cfg.Codec),
		stopCh:      make(chan struct{}),
	}, nil
}

func randomSSRC() uint32 {
	var b [4]byte
	rand.Read(b[:]) //nolint:errcheck // crypto/rand.Read never errors on this reader
	return binary.BigEndian.Uint32(b[:])
}

func payloadTypeFor(c media.Codec) uint8 {
	if c == media.CodecH265 {
		return sdp.PayloadTypeH265
	}
	return sdp.PayloadTypeH264
}

func (p *Publisher) write(b []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
	_, err := p.conn.Write(b)
	return err
}

// do sends req, attaching CSeq/Session/Authorization, and returns the
// parsed response. On a 401 it retries with freshly derived credentials
// up to maxAuthRetries times within this call, recomputing against a
// rotated nonce when the challenge reports stale=true. The retry count
// is scoped to this call, not the Publisher's lifetime, so a later
// operation gets its own fresh cycle.
func (p *Publisher) do(req *base.Request) (*base.Response, error) {
	return p.doAuth(req, 0)
}

func (p *Publisher) doAuth(req *base.Request, authAttempt int) (*base.Response, error) {
	if req.Header == nil {
		req.Header = base.NewHeader()
	}

	p.cseq++
	req.Header.Set("CSeq", strconv.FormatUint(p.cseq, 10))
	if p.sessionID != "" {
		req.Header.Set("Session", p.sessionID)
	}
	if p.sender != nil {
		hv := p.sender.Authorize(req.Method, req.URL)
		req.Header.Set("Authorization", hv[0])
	}

	if err := p.write(req.Marshal()); err != nil {
		return nil, &rtsperrors.TransportError{Op: "write request", Err: err}
	}

	p.conn.SetReadDeadline(time.Now().Add(p.cfg.ReadTimeout))
	res, err := base.ReadResponse(p.rb)
	if err != nil {
		return nil, &rtsperrors.TransportError{Op: "read response", Err: err}
	}

	if sh := res.Header.Values("Session"); len(sh) > 0 {
		var s headers.Session
		if err := s.Unmarshal(sh); err == nil {
			p.sessionID = s.ID
		}
	}

	if res.StatusCode == base.StatusUnauthorized {
		challenge := res.Header.Values("WWW-Authenticate")
		if authAttempt >= maxAuthRetries || (authAttempt > 0 && !digestChallengeStale(challenge)) {
			return res, &rtsperrors.AuthError{Reason: "credentials rejected after retry"}
		}
		p.authRetries++

		sender, err := digestauth.NewSender(challenge, p.cfg.Username, p.cfg.Password)
		if err != nil {
			return res, &rtsperrors.AuthError{Reason: err.Error()}
		}
		p.sender = sender
		return p.doAuth(req, authAttempt+1)
	}

	return res, nil
}

// digestChallengeStale reports whether values contains a Digest
// WWW-Authenticate challenge with stale=true, meaning the credentials
// were correct but the nonce had expired (spec.md §4.5).
func digestChallengeStale(values base.HeaderValue) bool {
	for _, v := range values {
		var a headers.Authenticate
		if err := a.Unmarshal(base.HeaderValue{v}); err == nil && a.Method == headers.AuthDigest {
			return a.Stale
		}
	}
	return false
}

func (p *Publisher) trackURL() (*base.URL, error) {
	return base.Parse(p.announceURL.RequestURI() + "/" + trackControl)
}

// Announce pushes an SDP description of the stream's single video track
// to the sink.
func (p *Publisher) Announce() error {
	info := sdp.MediaInfo{Codec: sdpCodec(p.cfg.Codec), PayloadType: p.payloadType, Control: trackControl}

	body, err := sdp.Build(streamNameFromURL(p.announceURL), sessionIDSeed(), nil, info)
	if err != nil {
		return &rtsperrors.ProtocolError{Reason: "failed to build SDP body", Err: err}
	}

	req := &base.Request{Method: base.Announce, URL: p.announceURL, Header: base.NewHeader(), Body: body}
	req.Header.Set("Content-Type", "application/sdp")

	res, err := p.do(req)
	if err != nil {
		return err
	}
	if res.StatusCode != base.StatusOK {
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("ANNOUNCE failed: %d %s", res.StatusCode, res.StatusMessage)}
	}
	return nil
}

func sdpCodec(c media.Codec) sdp.Codec {
	if c == media.CodecH265 {
		return sdp.CodecH265
	}
	return sdp.CodecH264
}

func streamNameFromURL(u *base.URL) string {
	return u.Path()
}

func sessionIDSeed() uint64 {
	var b [8]byte
	rand.Read(b[:]) //nolint:errcheck // crypto/rand.Read never errors on this reader
	return binary.BigEndian.Uint64(b[:])
}

// Setup negotiates a record-mode transport for the track.
func (p *Publisher) Setup() error {
	tu, err := p.trackURL()
	if err != nil {
		return &rtsperrors.ProtocolError{Reason: "invalid track URL", Err: err}
	}

	recordMode := headers.ModeRecord
	var tr headers.Transport
	tr.Mode = &recordMode

	var udp *udpEndpoints
	if p.cfg.Transport == PreferTCP {
		tr.Protocol = headers.ProtocolTCP
		tr.InterleavedIDs = &[2]int{0, 1}
	} else {
		tr.Protocol = headers.ProtocolUDP
		rtpConn, rtcpConn, err := dialUDPPair(p.cfg.UDPPortStart, p.cfg.UDPPortEnd)
		if err != nil {
			return &rtsperrors.TransportError{Op: "bind UDP pair", Err: err}
		}
		udp = &udpEndpoints{rtpConn: rtpConn, rtcpConn: rtcpConn}
		tr.ClientPorts = &[2]int{udpLocalPort(rtpConn), udpLocalPort(rtcpConn)}
	}

	req := &base.Request{Method: base.Setup, URL: tu, Header: base.NewHeader()}
	req.Header.Set("Transport", tr.Marshal()[0])

	res, err := p.do(req)
	if err != nil {
		closeUDP(udp)
		return err
	}
	if res.StatusCode != base.StatusOK {
		closeUDP(udp)
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("SETUP failed: %d %s", res.StatusCode, res.StatusMessage)}
	}

	var respTr headers.Transport
	if err := respTr.Unmarshal(res.Header.Values("Transport")); err != nil {
		closeUDP(udp)
		return &rtsperrors.ProtocolError{Reason: "invalid Transport header in SETUP response", Err: err}
	}

	if p.cfg.Transport == PreferTCP {
		p.transport = transportTCP
		if respTr.InterleavedIDs != nil {
			p.interleaved = [2]uint8{uint8(respTr.InterleavedIDs[0]), uint8(respTr.InterleavedIDs[1])}
		} else {
			p.interleaved = [2]uint8{0, 1}
		}
	} else {
		p.transport = transportUDP
		p.udp = udp
		if respTr.ServerPorts != nil {
			if err := connectUDPPair(p.udp, p.announceURL.Host(), respTr.ServerPorts); err != nil {
				closeUDP(udp)
				return &rtsperrors.TransportError{Op: "connect UDP pair", Err: err}
			}
		}
	}

	return nil
}

// Record starts the data plane.
func (p *Publisher) Record() error {
	req := &base.Request{Method: base.Record, URL: p.announceURL, Header: base.NewHeader()}
	res, err := p.do(req)
	if err != nil {
		return err
	}
	if res.StatusCode != base.StatusOK {
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("RECORD failed: %d %s", res.StatusCode, res.StatusMessage)}
	}

	p.counters.SSRC = p.ssrc
	return nil
}

// PushFrame packetizes one Annex-B access unit and sends it over the
// negotiated transport, emitting a Sender Report every RTCPInterval
// packets (spec.md §4.7/§6), the same cadence the server side uses.
func (p *Publisher) PushFrame(f *media.VideoFrame) error {
	select {
	case <-p.stopCh:
		return &rtsperrors.ShutdownError{Op: "push frame"}
	default:
	}

	nalus, err := splitAnnexB(f.Codec, f.Data)
	if err != nil {
		return err
	}

	payloads, err := packetize(f.Codec, p.payloadType, nalus)
	if err != nil {
		return err
	}

	rtpTS := uint32(f.PTSMs * 90)
	for _, pl := range payloads {
		wire, err := rtppkt.Encode(p.payloadType, p.seq, rtpTS, p.ssrc, pl.Marker, pl.Bytes)
		if err != nil {
			return err
		}
		p.seq++

		if err := p.writeRTP(wire); err != nil {
			return err
		}
		p.counters.Add(rtpTS, len(pl.Bytes))

		p.sincePacketSR++
		if p.sincePacketSR >= p.cfg.RTCPInterval {
			p.sincePacketSR = 0
			if err := p.sendRTCPReport(); err != nil {
				p.log.Warnf("publisher: RTCP SR send error: %v", err)
			}
		}
	}
	return nil
}

func (p *Publisher) sendRTCPReport() error {
	b, err := rtcpsr.Build(&p.counters, time.Now())
	if err != nil {
		return err
	}
	return p.writeRTCP(b)
}

type rtpPayload struct {
	Bytes  []byte
	Marker bool
}

func packetize(codec media.Codec, pt uint8, nalus [][]byte) ([]rtpPayload, error) {
	if codec == media.CodecH265 {
		pkts, err := h265.NewPacketizer(pt).Packetize(nalus)
		if err != nil {
			return nil, err
		}
		out := make([]rtpPayload, len(pkts))
		for i, pk := range pkts {
			out[i] = rtpPayload{Bytes: pk.Bytes, Marker: pk.Marker}
		}
		return out, nil
	}
	pkts, err := h264.NewPacketizer(pt).Packetize(nalus)
	if err != nil {
		return nil, err
	}
	out := make([]rtpPayload, len(pkts))
	for i, pk := range pkts {
		out[i] = rtpPayload{Bytes: pk.Bytes, Marker: pk.Marker}
	}
	return out, nil
}

func splitAnnexB(codec media.Codec, data []byte) ([][]byte, error) {
	if codec == media.CodecH265 {
		return h265.SplitAnnexB(data)
	}
	return h264.SplitAnnexB(data)
}

func (p *Publisher) writeRTP(b []byte) error {
	if p.transport == transportUDP {
		_, err := p.udp.rtpConn.Write(b)
		return err
	}
	frame := (&base.InterleavedFrame{Channel: p.interleaved[0], Payload: b}).Marshal()
	return p.write(frame)
}

func (p *Publisher) writeRTCP(b []byte) error {
	if p.transport == transportUDP {
		_, err := p.udp.rtcpConn.Write(b)
		return err
	}
	frame := (&base.InterleavedFrame{Channel: p.interleaved[1], Payload: b}).Marshal()
	return p.write(frame)
}

// Teardown ends the session and is idempotent.
func (p *Publisher) Teardown() error {
	req := &base.Request{Method: base.Teardown, URL: p.announceURL, Header: base.NewHeader()}
	_, err := p.do(req)
	return err
}

// Close tears the session down (best-effort) and releases all sockets.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		_ = p.Teardown()
		close(p.stopCh)
		p.conn.Close()
		closeUDP(p.udp)
	})
}

func closeUDP(ep *udpEndpoints) {
	if ep == nil {
		return
	}
	ep.rtpConn.Close()
	ep.rtcpConn.Close()
}

func udpLocalPort(conn *net.UDPConn) int {
	return conn.LocalAddr().(*net.UDPAddr).Port
}

func dialUDPPair(start, end int) (*net.UDPConn, *net.UDPConn, error) {
	for p := start; p+1 <= end; p += 2 {
		rtpConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: p})
		if err != nil {
			continue
		}
		rtcpConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: p + 1})
		if err != nil {
			rtpConn.Close()
			continue
		}
		return rtpConn, rtcpConn, nil
	}
	return nil, nil, fmt.Errorf("no free UDP port pair in [%d, %d]", start, end)
}

func connectUDPPair(ep *udpEndpoints, host string, serverPorts *[2]int) error {
	peerIP, err := resolveHost(host)
	if err != nil {
		return err
	}

	rtpPort := udpLocalPort(ep.rtpConn)
	rtcpPort := udpLocalPort(ep.rtcpConn)
	ep.rtpConn.Close()
	ep.rtcpConn.Close()

	rtpConn, err := net.DialUDP("udp", &net.UDPAddr{Port: rtpPort}, &net.UDPAddr{IP: peerIP, Port: serverPorts[0]})
	if err != nil {
		return err
	}
	rtcpConn, err := net.DialUDP("udp", &net.UDPAddr{Port: rtcpPort}, &net.UDPAddr{IP: peerIP, Port: serverPorts[1]})
	if err != nil {
		rtpConn.Close()
		return err
	}

	ep.rtpConn = rtpConn
	ep.rtcpConn = rtcpConn
	return nil
}

func resolveHost(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("cannot resolve %q", host)
	}
	return ips[0], nil
}
