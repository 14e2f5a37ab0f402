package rtspserver

import (
	"net"
	"sync"
	"time"

	"github.com/oxflow/rtspflow/pkg/frame"
	"github.com/oxflow/rtspflow/pkg/headers"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtcpsr"
	"github.com/oxflow/rtspflow/pkg/rtsplog"
)

// State is a ClientSession's position in the state machine spec.md
// §4.6 names.
type State int

// States.
const (
	StateInit State = iota
	StateReady
	StatePlaying
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StatePlaying:
		return "PLAYING"
	case StateRecording:
		return "RECORDING"
	default:
		return "INIT"
	}
}

// TransportKind is the negotiated data-plane transport.
type TransportKind int

// Transport kinds.
const (
	TransportUDP TransportKind = iota
	TransportTCP
)

// udpEndpoints holds a UDP-pair session's local sockets.
type udpEndpoints struct {
	rtpConn  *net.UDPConn
	rtcpConn *net.UDPConn
}

// ClientSession is a server-side RTSP session: one per successful
// SETUP, living until TEARDOWN, connection drop, or idle timeout
// (spec.md §3).
type ClientSession struct {
	ID   string
	Path string
	Mode headers.Mode

	mu    sync.Mutex
	state State

	transport   TransportKind
	udp         *udpEndpoints
	interleaved [2]uint8 // rtp channel, rtcp channel
	writeLocked func(b []byte) error

	queue  chan *media.VideoFrame
	closed bool

	// sender lifecycle (PLAY/PAUSE), independent of the session's own
	// lifetime so PAUSE can join the sender without tearing the session
	// down.
	senderActive bool
	senderStopCh chan struct{}
	senderWG     sync.WaitGroup

	// receiver lifecycle (RECORD), same idea for the ingress direction.
	recvActive bool
	recvStopCh chan struct{}
	recvWG     sync.WaitGroup

	lastActivity time.Time

	ssrc          uint32
	seq           uint16
	rtcpCounters  rtcpsr.Counters
	rtcpInterval  int
	sincePacketSR int
	payloadType   uint8

	assembler  *frame.Assembler
	pathConfig *PathConfig
	mediaPath  *MediaPath
	queueSize  int

	log rtsplog.Logger
}

func (s *ClientSession) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *ClientSession) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

func (s *ClientSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ClientSession) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *ClientSession) isPlaying() bool {
	return s.State() == StatePlaying
}

// enqueue pushes f into the session's bounded queue, dropping the
// oldest buffered frame if full (spec.md §4.7, §3: "drop-oldest when
// full, default 30").
func (s *ClientSession) enqueue(f *media.VideoFrame, _ int) {
	select {
	case s.queue <- f:
		return
	default:
	}
	select {
	case <-s.queue:
	default:
	}
	select {
	case s.queue <- f:
	default:
	}
}

// startSender launches the egress sender task if it isn't already
// running. Idempotent, per spec.md §4.6's PLAY idempotence requirement.
func (s *ClientSession) startSender() {
	s.mu.Lock()
	if s.senderActive {
		s.mu.Unlock()
		return
	}
	s.senderActive = true
	s.senderStopCh = make(chan struct{})
	s.mu.Unlock()

	s.senderWG.Add(1)
	go s.runSender()
}

// pauseSender joins the sender task and drains the queue, leaving the
// session ready to resume (spec.md §4.6: "PAUSE joins the sender task,
// drains the queue").
func (s *ClientSession) pauseSender() {
	s.mu.Lock()
	if !s.senderActive {
		s.mu.Unlock()
		return
	}
	s.senderActive = false
	close(s.senderStopCh)
	s.mu.Unlock()

	s.senderWG.Wait()

	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

// pauseReceiver stops the ingress receiver task without tearing the
// session's transport down, leaving it ready for a later RECORD to
// resume it (spec.md §4.6: RECORDING's PAUSE transition). For UDP this
// forces the blocked socket read to return via a deadline rather than
// closing the socket, since the same UDP pair is reused on resume; TCP
// ingestion has no dedicated goroutine, so flipping recvActive off is
// enough for ingest's state check to start dropping packets.
func (s *ClientSession) pauseReceiver() {
	s.mu.Lock()
	if !s.recvActive {
		s.mu.Unlock()
		return
	}
	s.recvActive = false
	close(s.recvStopCh)
	transport := s.transport
	s.mu.Unlock()

	if transport == TransportUDP && s.udp != nil && s.udp.rtpConn != nil {
		s.udp.rtpConn.SetReadDeadline(time.Now())
	}

	s.recvWG.Wait()

	if transport == TransportUDP && s.udp != nil && s.udp.rtpConn != nil {
		s.udp.rtpConn.SetReadDeadline(time.Time{})
	}
}

// startReceiver launches the ingress receiver task for a RECORDING
// session if it isn't already running.
func (s *ClientSession) startReceiver() {
	s.mu.Lock()
	if s.recvActive {
		s.mu.Unlock()
		return
	}
	s.recvActive = true
	s.recvStopCh = make(chan struct{})
	s.mu.Unlock()

	if s.transport == TransportUDP {
		s.recvWG.Add(1)
		go s.runReceiverUDP()
	}
	// TCP-interleaved ingestion is driven by the connection's read loop
	// dispatching frames on the RTP channel; no dedicated goroutine.
}

// stop halts the session's sender/receiver tasks and releases its
// sockets. Safe to call more than once.
func (s *ClientSession) stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	senderActive := s.senderActive
	s.senderActive = false
	recvActive := s.recvActive
	s.recvActive = false
	s.mu.Unlock()

	if senderActive {
		close(s.senderStopCh)
	}
	if recvActive {
		close(s.recvStopCh)
	}
	if s.udp != nil {
		if s.udp.rtpConn != nil {
			s.udp.rtpConn.Close()
		}
		if s.udp.rtcpConn != nil {
			s.udp.rtcpConn.Close()
		}
	}
	s.senderWG.Wait()
	s.recvWG.Wait()
}
