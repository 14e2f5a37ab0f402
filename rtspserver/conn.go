package rtspserver

import (
	"bufio"
	"net"
	"sync"

	"github.com/google/uuid"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/digestauth"
)

// connHandler owns one accepted TCP control connection: it serializes
// request/response traffic, holds at most one ClientSession (no
// aggregate SETUP support, per spec.md §4.6), and multiplexes
// interleaved RTP/RTCP bytes for TCP-transport sessions onto the same
// socket the RTSP dialog uses.
type connHandler struct {
	srv  *Server
	conn net.Conn
	rb   *bufio.Reader

	writeMu sync.Mutex

	session   *ClientSession
	validator *digestauth.Validator

	announcedPath *PathConfig
}

func (srv *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	ch := &connHandler{
		srv:  srv,
		conn: conn,
		rb:   bufio.NewReader(conn),
	}
	if srv.cfg.AuthEnabled {
		ch.validator = digestauth.NewValidator(srv.cfg.AuthUsername, srv.cfg.AuthPassword, srv.cfg.AuthRealm, srv.cfg.AuthNonceTTL, srv.cfg.AuthUseDigest, srv.cfg.AuthNonce)
	}

	defer func() {
		if ch.session != nil {
			if mp, ok := srv.path(ch.session.Path); ok {
				mp.removeSession(ch.session.ID)
			}
			ch.session.stop()
		}
	}()

	for {
		b, err := ch.rb.Peek(1)
		if err != nil {
			return
		}

		if b[0] == base.InterleavedFrameMagic {
			fr, err := base.ReadInterleavedFrame(ch.rb)
			if err != nil {
				return
			}
			ch.handleInterleaved(fr)
			continue
		}

		req, err := base.ReadRequest(ch.rb)
		if err != nil {
			if isUnknownMethod(err) {
				ch.writeResponse(req, base.StatusNotImplemented, nil, nil)
				continue
			}
			return
		}

		if ch.session != nil {
			ch.session.touch()
		}

		ch.dispatch(req)
	}
}

func isUnknownMethod(err error) bool {
	return strings.Contains(err.Error(), "unknown method")
}

func (ch *connHandler) handleInterleaved(fr *base.InterleavedFrame) {
	s := ch.session
	if s == nil || s.transport != TransportTCP {
		return
	}
	if fr.Channel != s.interleaved[0] {
		return // RTCP channel or unrelated; ingest only cares about RTP
	}
	s.ingest(fr.Payload)
}

func (ch *connHandler) dispatch(req *base.Request) {
	if ch.srv.cfg.AuthEnabled && req.Method != base.Options {
		if !ch.checkAuth(req) {
			return
		}
	}

	switch req.Method {
	case base.Options:
		ch.handleOptions(req)
	case base.Describe:
		ch.handleDescribe(req)
	case base.Announce:
		ch.handleAnnounce(req)
	case base.Setup:
		ch.handleSetup(req)
	case base.Play:
		ch.handlePlay(req)
	case base.Pause:
		ch.handlePause(req)
	case base.Record:
		ch.handleRecord(req)
	case base.GetParameter, base.SetParameter:
		ch.handleKeepalive(req)
	case base.Teardown:
		ch.handleTeardown(req)
	default:
		ch.writeResponse(req, base.StatusNotImplemented, nil, nil)
	}
}

func (ch *connHandler) writeResponse(req *base.Request, code base.StatusCode, header *base.Header, body []byte) {
	if header == nil {
		header = base.NewHeader()
	}
	if req != nil && req.Header != nil && req.Header.Has("CSeq") {
		header.Set("CSeq", req.Header.Get("CSeq"))
	}
	resp := &base.Response{StatusCode: code, Header: header, Body: body}
	b := resp.Marshal()

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	ch.conn.Write(b)
}

// write is the shared send path sessions use for interleaved RTP/RTCP
// frames, serializing with response writes over the same socket
// (spec.md §5: "Control socket send: per-connection mutex").
func (ch *connHandler) write(b []byte) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	_, err := ch.conn.Write(b)
	return err
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
