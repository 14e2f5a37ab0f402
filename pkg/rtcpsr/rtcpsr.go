// Package rtcpsr builds the RTCP Sender Report the server emits every
// 100 RTP packets per session (spec.md §4.7, §9 Open Question #3).
package rtcpsr

import (
	"math"
	"time"

	"github.com/pion/rtcp"
)

// EncodeNTP encodes t in the 64-bit NTP timestamp format RFC 3550 §4
// uses for the SR's NTP field (seconds-since-1900 << 32 | fraction).
func EncodeNTP(t time.Time) uint64 {
	ntp := uint64(t.UnixNano()) + 2208988800*1000000000
	secs := ntp / 1000000000
	fractional := uint64(math.Round(float64((ntp%1000000000)*(1<<32)) / 1000000000))
	return secs<<32 | fractional
}

// Counters accumulates per-session packet/octet counts between reports.
type Counters struct {
	SSRC        uint32
	PacketCount uint32
	OctetCount  uint32
	LastRTPTime uint32
}

// Add records one outgoing RTP packet.
func (c *Counters) Add(rtpTimestamp uint32, payloadLen int) {
	c.PacketCount++
	c.OctetCount += uint32(payloadLen)
	c.LastRTPTime = rtpTimestamp
}

// Build constructs the 28-byte compound Sender Report (RFC 3550 PT=200,
// no RR block, per spec.md §6) for the current counters at time now.
func Build(c *Counters, now time.Time) ([]byte, error) {
	sr := &rtcp.SenderReport{
		SSRC:        c.SSRC,
		NTPTime:     EncodeNTP(now),
		RTPTime:     c.LastRTPTime,
		PacketCount: c.PacketCount,
		OctetCount:  c.OctetCount,
	}
	return sr.Marshal()
}
