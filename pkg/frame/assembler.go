// Package frame implements C4's frame-assembly half: it drives incoming
// RTP packets through a jitterbuf.Buffer, reconstructs NALUs with the
// codec-specific depacketizer, and emits media.VideoFrame values on
// marker bit or timestamp change, applying the FU-loss drop-mode policy
// spec.md §4.4 describes. Grounded on the same teacher decoder state
// machines package h264/h265 already adapt; this package is new, tying
// them to the jitter buffer the way the teacher's formatprocessor glues
// format decoders to its own stream-level reader.
package frame

import (
	"github.com/oxflow/rtspflow/pkg/codec/h264"
	"github.com/oxflow/rtspflow/pkg/codec/h265"
	"github.com/oxflow/rtspflow/pkg/jitterbuf"
	"github.com/oxflow/rtspflow/pkg/media"
)

type depacketizer interface {
	Depacketize(seq uint16, payload []byte) ([][]byte, error)
}

// Assembler reassembles one RTP stream into VideoFrames.
type Assembler struct {
	codec  media.Codec
	dep    depacketizer
	jitter *jitterbuf.Buffer

	width, height, fps int

	inProgress bool
	isIDR      bool
	frameTS    uint32
	accum      []byte
	dropMode   bool

	haveSeq bool
	prevSeq uint16
}

// Config carries the session-negotiated parameters an Assembler needs
// at construction (spec.md §4.4: "width/height/fps from session setup").
type Config struct {
	Codec            media.Codec
	Width            int
	Height           int
	FPS              int
	JitterBufferSize int
}

// New allocates an Assembler for one RTP stream.
func New(cfg Config) *Assembler {
	var dep depacketizer
	if cfg.Codec == media.CodecH265 {
		dep = &h265.Depacketizer{}
	} else {
		dep = &h264.Depacketizer{}
	}
	return &Assembler{
		codec:  cfg.Codec,
		dep:    dep,
		jitter: jitterbuf.New(cfg.JitterBufferSize),
		width:  cfg.Width,
		height: cfg.Height,
		fps:    cfg.FPS,
	}
}

// Stats exposes the underlying jitter buffer's counters.
func (a *Assembler) Stats() jitterbuf.Stats { return a.jitter.Stats() }

// Push admits one parsed RTP packet and returns the VideoFrames it
// completes, if any (usually zero or one; a forced jitter-buffer drain
// can complete more than one in a single call).
func (a *Assembler) Push(seq uint16, timestamp uint32, marker bool, payload []byte) []*media.VideoFrame {
	released := a.jitter.Push(jitterbuf.Packet{Seq: seq, Timestamp: timestamp, Marker: marker, Payload: payload})

	var out []*media.VideoFrame
	for _, rp := range released {
		out = append(out, a.consume(rp)...)
	}
	return out
}

func (a *Assembler) consume(rp jitterbuf.Packet) []*media.VideoFrame {
	lost := a.haveSeq && rp.Seq != a.prevSeq+1
	a.prevSeq = rp.Seq
	a.haveSeq = true

	var out []*media.VideoFrame

	if a.inProgress && rp.Timestamp != a.frameTS {
		if f := a.finishFrame(); f != nil {
			out = append(out, f)
		}
		a.startFrame(rp.Timestamp)
	} else if !a.inProgress {
		a.startFrame(rp.Timestamp)
	}

	nalus, err := a.dep.Depacketize(rp.Seq, rp.Payload)
	switch {
	case err == h264.ErrMorePacketsNeeded, err == h265.ErrMorePacketsNeeded:
		// fragment accepted, access unit still incomplete.
	case err != nil:
		if lost {
			a.dropMode = true
		}
	default:
		a.appendNALUs(nalus)
	}

	if rp.Marker {
		if f := a.finishFrame(); f != nil {
			out = append(out, f)
		}
	}

	return out
}

func (a *Assembler) startFrame(ts uint32) {
	a.inProgress = true
	a.isIDR = false
	a.frameTS = ts
	a.accum = a.accum[:0]
	a.dropMode = false
}

func (a *Assembler) appendNALUs(nalus [][]byte) {
	for _, n := range nalus {
		if len(n) == 0 {
			continue
		}
		if a.codec == media.CodecH265 {
			if h265.IsKeyframeNALU(h265.Type(n[0])) {
				a.isIDR = true
			}
		} else if h264.IsKeyframeNALU(h264.Type(n[0])) {
			a.isIDR = true
		}
		a.accum = append(a.accum, 0, 0, 0, 1)
		a.accum = append(a.accum, n...)
	}
}

func (a *Assembler) finishFrame() *media.VideoFrame {
	if !a.inProgress {
		return nil
	}
	a.inProgress = false

	if a.dropMode || len(a.accum) == 0 {
		return nil
	}

	ft := media.FrameTypeOther
	if a.isIDR {
		ft = media.FrameTypeIDR
	}

	ptsMs := int64(a.frameTS) / 90

	return &media.VideoFrame{
		Codec:  a.codec,
		Type:   ft,
		Width:  a.width,
		Height: a.height,
		FPS:    a.fps,
		PTSMs:  ptsMs,
		DTSMs:  ptsMs,
		Data:   append([]byte(nil), a.accum...),
	}
}
