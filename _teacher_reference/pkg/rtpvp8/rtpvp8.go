// Package rtpvp8 contains a RTP/VP8 decoder and encoder.
package rtpvp8

const (
	rtpClockRate = 90000 // vp8 always uses 90khz
)
