package rtspserver

import (
	"sync"

	"github.com/oxflow/rtspflow/pkg/codec/h264"
	"github.com/oxflow/rtspflow/pkg/codec/h265"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

// PathConfig describes one video source: its codec and declared
// dimensions, plus the parameter sets DESCRIBE needs for fmtp (spec.md
// §3's PathConfig).
type PathConfig struct {
	Path   string
	Codec  media.Codec
	Width  int
	Height int
	FPS    int

	mu      sync.Mutex
	h264PS  h264.ParameterSets
	h265PS  h265.ParameterSets
}

// NewPathConfig allocates a PathConfig, applying spec.md §4.1's
// defaults for any zero dimension/fps.
func NewPathConfig(path string, codec media.Codec, width, height, fps int) *PathConfig {
	if width == 0 {
		width = sdp.DefaultWidth
	}
	if height == 0 {
		height = sdp.DefaultHeight
	}
	if fps == 0 {
		fps = sdp.DefaultFramerate
	}
	return &PathConfig{Path: path, Codec: codec, Width: width, Height: height, FPS: fps}
}

// observeKeyframe scans an Annex-B keyframe's NALUs and, if the path's
// parameter sets are still empty, fills them in so later DESCRIBE
// responses carry accurate fmtp (spec.md §4.7).
func (pc *PathConfig) observeKeyframe(codec media.Codec, nalus [][]byte) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if codec == media.CodecH265 {
		if !pc.h265PS.Ready() {
			pc.h265PS.Capture(nalus)
		}
		return
	}
	if !pc.h264PS.Ready() {
		pc.h264PS.Capture(nalus)
	}
}

func (pc *PathConfig) mediaInfo(payloadType uint8, control string) sdp.MediaInfo {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	info := sdp.MediaInfo{
		Codec:       codecName(pc.Codec),
		PayloadType: payloadType,
		Width:       pc.Width,
		Height:      pc.Height,
		Framerate:   pc.FPS,
		Control:     control,
	}
	if pc.Codec == media.CodecH265 {
		info.SpropVPS = b64(pc.h265PS.VPS)
		info.SpropSPS = b64(pc.h265PS.SPS)
		info.SpropPPS = b64(pc.h265PS.PPS)
	} else {
		if len(pc.h264PS.SPS) > 0 && len(pc.h264PS.PPS) > 0 {
			info.SpropParameterSets = []string{b64(pc.h264PS.SPS), b64(pc.h264PS.PPS)}
		}
	}
	return info
}

func codecName(c media.Codec) sdp.Codec {
	if c == media.CodecH265 {
		return sdp.CodecH265
	}
	return sdp.CodecH264
}
