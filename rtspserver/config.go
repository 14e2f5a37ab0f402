// Package rtspserver implements C6 (the per-connection session state
// machine) and C7 (the server core: path routing, broadcast fan-out,
// per-session sender/receiver tasks, idle cleanup), grounded on the
// teacher's server.go/server_conn.go/server_session.go trio but
// restructured around this stack's single-path, single-video-track
// scope and its qop=auth digest requirements.
package rtspserver

import "time"

// Config holds the server's tunables, per spec.md §6's enumerated
// configuration surface.
type Config struct {
	Host string
	Port int

	SessionTimeout time.Duration // session_timeout_ms
	RTPPortStart   int
	RTPPortEnd     int

	AuthEnabled   bool
	AuthUseDigest bool
	AuthUsername  string
	AuthPassword  string
	AuthRealm     string
	AuthNonceTTL  time.Duration // auth_nonce_ttl_ms
	AuthNonce     string        // auth_nonce (opt, autogenerated); fixes the nonce for deterministic reproduction

	QueueSize            int // per-session frame queue depth, default 30
	JitterBufferPackets  int // default 32, used for RECORD-ingress sessions
	SenderRTCPInterval   int // emit a SR every N packets, default 100
	CleanupSweepInterval time.Duration
}

// defaults fills zero-valued fields with spec.md's stated defaults.
func (c *Config) defaults() {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 60 * time.Second
	}
	if c.RTPPortStart == 0 {
		c.RTPPortStart = 20000
	}
	if c.RTPPortEnd == 0 {
		c.RTPPortEnd = 30000
	}
	if c.AuthRealm == "" {
		c.AuthRealm = "rtspflow"
	}
	if c.AuthNonceTTL == 0 {
		c.AuthNonceTTL = 30 * time.Second
	}
	if c.QueueSize == 0 {
		c.QueueSize = 30
	}
	if c.JitterBufferPackets == 0 {
		c.JitterBufferPackets = 32
	}
	if c.SenderRTCPInterval == 0 {
		c.SenderRTCPInterval = 100
	}
	if c.CleanupSweepInterval == 0 {
		c.CleanupSweepInterval = 5 * time.Second
	}
}
