// Package rtph264 contains a RTP/H264 decoder and encoder.
package rtph264

const (
	rtpClockRate = 90000 // h264 always uses 90khz
)
