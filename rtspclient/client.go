package rtspclient

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/digestauth"
	"github.com/oxflow/rtspflow/pkg/frame"
	"github.com/oxflow/rtspflow/pkg/headers"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtsperrors"
	"github.com/oxflow/rtspflow/pkg/rtsplog"
	"github.com/oxflow/rtspflow/pkg/rtppkt"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

const trackControl = "trackID=0"

// maxAuthRetries bounds the 401 challenge/response cycle within a single
// top-level call (Describe/Setup/...): one retry for the initial
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

// Client is a single-path, single-track RTSP subscriber.
type Client struct {
	cfg Config
	log rtsplog.Logger

	describeURL *base.URL

	conn    net.Conn
	rb      *bufio.Reader
	writeMu sync.Mutex

	cseq      uint64
	sessionID string
	sender    *digestauth.Sender

	transport     transportKind
	udp           *udpEndpoints
	interleaved   [2]uint8
	fallbackTried bool

	mediaInfo *sdp.MediaInfo

	assembler   *frame.Assembler
	queue       chan *media.VideoFrame
	authRetries int

	demuxActive bool
	respCh      chan *base.Response

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Dial opens the TCP control connection. It does not issue any RTSP
// requests yet (spec.md §4.8: the first request is an explicit
// Describe/Setup call, not an implicit one on Dial).
func Dial(cfg Config, logger rtsplog.Func) (*Client, error) {
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

	return &Client{
		cfg:         cfg,
		log:         rtsplog.New(logger),
		describeURL: u,
		conn:        conn,
		rb:          bufio.NewReader(conn),
		queue:       make(chan *media.VideoFrame, cfg.ReceiveQueueSize),
		respCh:      make(chan *base.Response),
		stopCh:      make(chan struct{}),
	}, nil
}

func (c *Client) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	_, err := c.conn.Write(b)
	return err
}

// do sends req, attaching CSeq/Session/Authorization, and returns the
// parsed response. On a 401 it retries with freshly derived credentials
// up to maxAuthRetries times within this call, recomputing against a
// rotated nonce when the challenge reports stale=true (spec.md §4.5's
// auth_retries counter). The retry count is scoped to this call, not
// the Client's lifetime, so a later operation gets its own fresh cycle.
func (c *Client) do(req *base.Request) (*base.Response, error) {
	return c.doAuth(req, 0)
}

func (c *Client) doAuth(req *base.Request, authAttempt int) (*base.Response, error) {
	if req.Header == nil {
		req.Header = base.NewHeader()
	}

	c.cseq++
	req.Header.Set("CSeq", strconv.FormatUint(c.cseq, 10))
	if c.sessionID != "" {
		req.Header.Set("Session", c.sessionID)
	}
	if c.sender != nil {
		hv := c.sender.Authorize(req.Method, req.URL)
		req.Header.Set("Authorization", hv[0])
	}

	if err := c.write(req.Marshal()); err != nil {
		return nil, &rtsperrors.TransportError{Op: "write request", Err: err}
	}

	res, err := c.readResponse()
	if err != nil {
		return nil, err
	}

	if sh := res.Header.Values("Session"); len(sh) > 0 {
		var s headers.Session
		if err := s.Unmarshal(sh); err == nil {
			c.sessionID = s.ID
		}
	}

	if res.StatusCode == base.StatusUnauthorized {
		challenge := res.Header.Values("WWW-Authenticate")
		if authAttempt >= maxAuthRetries || (authAttempt > 0 && !digestChallengeStale(challenge)) {
			return res, &rtsperrors.AuthError{Reason: "credentials rejected after retry"}
		}
		c.authRetries++

		sender, err := digestauth.NewSender(challenge, c.cfg.Username, c.cfg.Password)
		if err != nil {
			return res, &rtsperrors.AuthError{Reason: err.Error()}
		}
		c.sender = sender

		return c.doAuth(req, authAttempt+1)
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

// readResponse returns the next RTSP response. Once TCP-interleaved data
// is flowing, both control responses and RTP/RTCP frames arrive on the
// same socket, so a single background demux loop (runDemuxTCP) owns the
// bufio.Reader and control responses are delivered over respCh instead.
func (c *Client) readResponse() (*base.Response, error) {
	if c.demuxActive {
		select {
		case res, ok := <-c.respCh:
			if !ok {
				return nil, &rtsperrors.TransportError{Op: "read response", Err: fmt.Errorf("connection closed")}
			}
			return res, nil
		case <-time.After(c.cfg.ReadTimeout):
			return nil, &rtsperrors.TimeoutError{Op: "read response"}
		case <-c.stopCh:
			return nil, &rtsperrors.ShutdownError{Op: "read response"}
		}
	}

	c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	res, err := base.ReadResponse(c.rb)
	if err != nil {
		return nil, &rtsperrors.TransportError{Op: "read response", Err: err}
	}
	return res, nil
}

// Describe issues DESCRIBE and parses the returned SDP body.
func (c *Client) Describe() (*sdp.MediaInfo, error) {
	req := &base.Request{Method: base.Describe, URL: c.describeURL, Header: base.NewHeader()}
	req.Header.Set("Accept", "application/sdp")

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != base.StatusOK {
		return nil, &rtsperrors.ProtocolError{Reason: fmt.Sprintf("DESCRIBE failed: %d %s", res.StatusCode, res.StatusMessage)}
	}

	info, err := sdp.Parse(res.Body)
	if err != nil {
		return nil, &rtsperrors.ProtocolError{Reason: "invalid SDP body", Err: err}
	}
	c.mediaInfo = info
	return info, nil
}

func (c *Client) setupURL() (*base.URL, error) {
	return base.Parse(c.describeURL.RequestURI() + "/" + trackControl)
}

// Setup negotiates a transport for the single video track. If the
// caller prefers UDP and the server returns 461 Unsupported Transport,
// Setup falls back to TCP-interleaved exactly once (spec.md §9 Open
// Question #1).
func (c *Client) Setup() error {
	if c.mediaInfo == nil {
		if _, err := c.Describe(); err != nil {
			return err
		}
	}

	su, err := c.setupURL()
	if err != nil {
		return &rtsperrors.ProtocolError{Reason: "invalid track URL", Err: err}
	}

	preferTCP := c.cfg.Transport == PreferTCP || c.fallbackTried

	var tr headers.Transport
	var udp *udpEndpoints
	if preferTCP {
		tr.Protocol = headers.ProtocolTCP
		tr.InterleavedIDs = &[2]int{0, 1}
	} else {
		tr.Protocol = headers.ProtocolUDP
		rtpConn, rtcpConn, err := dialUDPPair(c.cfg.UDPPortStart, c.cfg.UDPPortEnd)
		if err != nil {
			return &rtsperrors.TransportError{Op: "bind UDP pair", Err: err}
		}
		udp = &udpEndpoints{rtpConn: rtpConn, rtcpConn: rtcpConn}
		tr.ClientPorts = &[2]int{udpLocalPort(rtpConn), udpLocalPort(rtcpConn)}
	}

	req := &base.Request{Method: base.Setup, URL: su, Header: base.NewHeader()}
	req.Header.Set("Transport", tr.Marshal()[0])

	res, err := c.do(req)
	if err != nil {
		if udp != nil {
			udp.rtpConn.Close()
			udp.rtcpConn.Close()
		}
		return err
	}

	if res.StatusCode == base.StatusUnsupportedTransport && !preferTCP && !c.fallbackTried {
		if udp != nil {
			udp.rtpConn.Close()
			udp.rtcpConn.Close()
		}
		c.fallbackTried = true
		return c.Setup()
	}

	if res.StatusCode != base.StatusOK {
		if udp != nil {
			udp.rtpConn.Close()
			udp.rtcpConn.Close()
		}
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("SETUP failed: %d %s", res.StatusCode, res.StatusMessage)}
	}

	var respTr headers.Transport
	if err := respTr.Unmarshal(res.Header.Values("Transport")); err != nil {
		if udp != nil {
			udp.rtpConn.Close()
			udp.rtcpConn.Close()
		}
		return &rtsperrors.ProtocolError{Reason: "invalid Transport header in SETUP response", Err: err}
	}

	if preferTCP {
		c.transport = transportTCP
		if respTr.InterleavedIDs != nil {
			c.interleaved = [2]uint8{uint8(respTr.InterleavedIDs[0]), uint8(respTr.InterleavedIDs[1])}
		} else {
			c.interleaved = [2]uint8{0, 1}
		}
		c.demuxActive = true
		c.wg.Add(1)
		go c.runDemuxTCP()
	} else {
		c.transport = transportUDP
		c.udp = udp
		if respTr.ServerPorts != nil {
			if err := connectUDPPair(c.udp, c.describeURL.Host(), respTr.ServerPorts); err != nil {
				udp.rtpConn.Close()
				udp.rtcpConn.Close()
				return &rtsperrors.TransportError{Op: "connect UDP pair", Err: err}
			}
		}
	}

	c.assembler = frame.New(frame.Config{
		Codec:            mediaCodec(c.mediaInfo.Codec),
		Width:            c.mediaInfo.Width,
		Height:           c.mediaInfo.Height,
		FPS:              c.mediaInfo.Framerate,
		JitterBufferSize: c.cfg.JitterBufferPackets,
	})

	return nil
}

func mediaCodec(c sdp.Codec) media.Codec {
	if c == sdp.CodecH265 {
		return media.CodecH265
	}
	return media.CodecH264
}

// Play starts or resumes the data plane.
func (c *Client) Play() error {
	req := &base.Request{Method: base.Play, URL: c.describeURL, Header: base.NewHeader()}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	if res.StatusCode != base.StatusOK {
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("PLAY failed: %d %s", res.StatusCode, res.StatusMessage)}
	}

	if c.transport == transportUDP {
		c.wg.Add(1)
		go c.runReaderUDP()
	}
	// TCP-interleaved data is already being demuxed by runDemuxTCP,
	// started in Setup once the transport was negotiated.
	return nil
}

// Pause halts the data plane without tearing the session down.
func (c *Client) Pause() error {
	req := &base.Request{Method: base.Pause, URL: c.describeURL, Header: base.NewHeader()}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	if res.StatusCode != base.StatusOK {
		return &rtsperrors.ProtocolError{Reason: fmt.Sprintf("PAUSE failed: %d %s", res.StatusCode, res.StatusMessage)}
	}
	return nil
}

// Teardown ends the session and is idempotent (spec.md §4.6).
func (c *Client) Teardown() error {
	req := &base.Request{Method: base.Teardown, URL: c.describeURL, Header: base.NewHeader()}
	_, err := c.do(req)
	return err
}

// ReceiveFrame blocks until a frame is available or timeout elapses.
func (c *Client) ReceiveFrame(timeout time.Duration) (*media.VideoFrame, error) {
	select {
	case f := <-c.queue:
		return f, nil
	case <-time.After(timeout):
		return nil, &rtsperrors.TimeoutError{Op: "receive frame"}
	case <-c.stopCh:
		return nil, &rtsperrors.ShutdownError{Op: "receive frame"}
	}
}

func (c *Client) deliver(f *media.VideoFrame) {
	if c.cfg.OnFrame != nil {
		c.cfg.OnFrame(f)
	}
	select {
	case c.queue <- f:
	default:
		select {
		case <-c.queue:
		default:
		}
		select {
		case c.queue <- f:
		default:
		}
	}
}

// Close tears down the session (best-effort) and releases all sockets,
// waiting up to timeout for background goroutines to exit.
func (c *Client) Close(timeout time.Duration) bool {
	c.closeOnce.Do(func() {
		_ = c.Teardown()
		close(c.stopCh)
		c.conn.Close()
		if c.udp != nil {
			c.udp.rtpConn.Close()
			c.udp.rtcpConn.Close()
		}
	})

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
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

// connectUDPPair re-dials both sockets of ep onto the server's announced
// ports, keeping their already-bound local ports, so the reader loop can
// use Read instead of ReadFrom and the kernel filters out any traffic
// not from the server.
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

func (c *Client) runReaderUDP() {
	defer c.wg.Done()
	buf := make([]byte, 65536)
	for {
		c.udp.rtpConn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		n, err := c.udp.rtpConn.Read(buf)
		if err != nil {
			return
		}
		c.ingest(buf[:n])
	}
}

// runDemuxTCP owns the control connection's bufio.Reader once TCP
// transport is negotiated: it peeks the next byte to tell an
// interleaved RTP/RTCP frame ('$') from a plain RTSP status line and
// routes each to the right consumer.
func (c *Client) runDemuxTCP() {
	defer c.wg.Done()
	defer close(c.respCh)

	for {
		b, err := c.rb.Peek(1)
		if err != nil {
			return
		}

		if b[0] == base.InterleavedFrameMagic {
			fr, err := base.ReadInterleavedFrame(c.rb)
			if err != nil {
				return
			}
			if fr.Channel == c.interleaved[0] {
				c.ingest(fr.Payload)
			}
			continue
		}

		res, err := base.ReadResponse(c.rb)
		if err != nil {
			return
		}
		select {
		case c.respCh <- res:
		case <-c.stopCh:
			return
		}
	}
}

func (c *Client) ingest(wire []byte) {
	pkt, err := rtppkt.Parse(wire)
	if err != nil {
		c.log.Warnf("dropping malformed RTP packet: %v", err)
		return
	}
	frames := c.assembler.Push(pkt.SequenceNumber, pkt.Timestamp, pkt.Marker, pkt.Payload)
	for _, f := range frames {
		c.deliver(f)
	}
}
