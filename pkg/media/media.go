// Package media defines the codec-agnostic frame type the stack passes
// between the depacketizer, the jitter buffer, and a consuming
// application (spec.md §8's "VideoFrame" type).
package media

import "fmt"

// Codec names the coding format of a frame's NALUs.
type Codec int

// Supported codecs.
const (
	CodecH264 Codec = iota
	CodecH265
)

func (c Codec) String() string {
	if c == CodecH265 {
		return "H265"
	}
	return "H264"
}

// FrameType classifies a video frame for jitter-buffer and SPS/PPS
// auto-fill policy purposes.
type FrameType int

// Frame types.
const (
	FrameTypeOther FrameType = iota
	FrameTypeIDR
)

// AnnexBPrefix is the four-byte start code every NALU in a VideoFrame is
// prefixed with (spec.md §8: "size >= 5 and first four bytes are
// 00 00 00 01").
var AnnexBPrefix = [4]byte{0x00, 0x00, 0x00, 0x01}

// VideoFrame is one access unit: one or more NALUs, each prefixed with
// the Annex-B start code, concatenated in decode order.
type VideoFrame struct {
	Codec  Codec
	Type   FrameType
	Width  int
	Height int
	FPS    int

	// PTSMs and DTSMs are milliseconds; PTSMs = rtp_ts / 90 (spec.md §4.4).
	// This stack never reorders frames, so DTSMs always equals PTSMs.
	PTSMs int64
	DTSMs int64

	Data []byte
}

// ValidateAnnexB checks the invariant spec.md §8 requires of frame
// payloads handed to the packetizer: at least one complete NALU, each
// preceded by the four-byte start code.
func ValidateAnnexB(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("frame too short to contain a NALU: %d bytes", len(data))
	}
	if data[0] != 0 || data[1] != 0 || data[2] != 0 || data[3] != 1 {
		return fmt.Errorf("frame does not start with Annex-B start code")
	}
	return nil
}
