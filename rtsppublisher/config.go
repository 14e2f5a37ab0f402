// Package rtsppublisher implements C9, the outbound half of the stack:
// it drives ANNOUNCE → SETUP → RECORD against a remote RTSP sink,
// packetizes application-supplied Annex-B frames, and pushes them over
// either transport. Grounded on the teacher's clientconnpublish.go (the
// Announce/Record dialog, the background RTCP-report ticker, WriteFrame's
// single entry point for both transports) but reshaped around a single
// video track.
package rtsppublisher

import (
	"time"

	"github.com/oxflow/rtspflow/pkg/media"
)

// Transport is the publisher's transport preference for SETUP.
type Transport int

// Transport preferences.
const (
	PreferUDP Transport = iota
	PreferTCP
)

// Config holds a Publisher's tunables.
type Config struct {
	URL      string
	Username string
	Password string

	Codec media.Codec

	Transport    Transport
	UDPPortStart int
	UDPPortEnd   int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	RTCPInterval int
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
	if c.RTCPInterval == 0 {
		c.RTCPInterval = 100
	}
}
