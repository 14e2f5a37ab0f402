// Package rtspclient implements C8, the subscriber-side RTSP dialog:
// DESCRIBE/SETUP/PLAY/PAUSE/TEARDOWN driven over either UDP-pair or
// TCP-interleaved transport, with depacketization handed off to
// pkg/frame.Assembler. Grounded on the teacher's client.go (the `do`
// request/response loop, CSeq counter, auth retry-once, automatic
// UDP→TCP fallback on 461) but reshaped around this stack's single
// video track and qop=auth digest support.
package rtspclient

import (
	"time"

	"github.com/oxflow/rtspflow/pkg/media"
)

// Transport is the client's transport preference for SETUP.
type Transport int

// Transport preferences.
const (
	PreferUDP Transport = iota
	PreferTCP
)

// Config holds a Client's tunables.
type Config struct {
	URL      string
	Username string
	Password string

	Transport    Transport
	UDPPortStart int
	UDPPortEnd   int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	ReceiveQueueSize    int
	JitterBufferPackets int

	// OnFrame, if set, is called from the reader goroutine for every
	// assembled frame, in addition to it being buffered for ReceiveFrame.
	OnFrame func(*media.VideoFrame)
}

func (c *Config) defaults() {
	if c.Transport == 0 {
		c.Transport = PreferUDP
	}
	if c.UDPPortStart == 0 {
		c.UDPPortStart = 20000
	}
	if c.UDPPortEnd == 0 {
		c.UDPPortEnd = 30000
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReceiveQueueSize == 0 {
		c.ReceiveQueueSize = 30
	}
	if c.JitterBufferPackets == 0 {
		c.JitterBufferPackets = 32
	}
}
