// Package h264 implements the RFC 6184 payload format: Annex-B framing,
// STAP-A aggregation, and FU-A fragmentation, grounded on the teacher's
// pkg/codecs/h264 (NALU types, Annex-B codec) and pkg/format/rtph264
// (packetizer/depacketizer state machine). Parameter-set parsing is
// limited to raw byte capture of SPS/PPS NALUs for fmtp
// sprop-parameter-sets (spec.md §4.7); no Exp-Golomb bitstream parsing
// is performed, since the stack only needs width/height/fps defaults,
// never values derived from the bitstream.
package h264

import "fmt"

// NALUType is the five-bit NAL unit type field.
type NALUType uint8

// Types spec.md's packetizer/depacketizer and SPS/PPS capture logic need.
const (
	NALUTypeNonIDR NALUType = 1
	NALUTypeIDR    NALUType = 5
	NALUTypeSEI    NALUType = 6
	NALUTypeSPS    NALUType = 7
	NALUTypePPS    NALUType = 8
	NALUTypeAUD    NALUType = 9
	NALUTypeSTAPA  NALUType = 24
	NALUTypeSTAPB  NALUType = 25
	NALUTypeFUA    NALUType = 28
)

// MaxNALUSize bounds a single NALU extracted from an Annex-B buffer or
// reassembled from FU-A fragments.
const MaxNALUSize = 4 * 1024 * 1024

// MaxNALUsPerAccessUnit bounds how many NALUs a single access unit may
// aggregate, guarding against unbounded STAP-A expansion.
const MaxNALUsPerAccessUnit = 64

// Type extracts the NALU type from its header byte.
func Type(naluHeader byte) NALUType {
	return NALUType(naluHeader & 0x1F)
}

// IsKeyframeNALU reports whether typ marks the frame carrying it as a
// random-access point (spec.md's SPS/PPS auto-fill-on-keyframe policy).
func IsKeyframeNALU(typ NALUType) bool {
	return typ == NALUTypeIDR
}

// SplitAnnexB splits an Annex-B byte stream (one or more NALUs, each
// preceded by a 00 00 01 or 00 00 00 01 start code) into individual NALU
// byte slices, excluding the start codes.
func SplitAnnexB(data []byte) ([][]byte, error) {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil, fmt.Errorf("no Annex-B start code found")
	}

	var nalus [][]byte
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1].pos
		}
		nalu := data[s.pos+s.len : end]
		if len(nalu) == 0 {
			return nil, fmt.Errorf("empty NALU at offset %d", s.pos)
		}
		if len(nalu) > MaxNALUSize {
			return nil, fmt.Errorf("NALU size %d exceeds maximum %d", len(nalu), MaxNALUSize)
		}
		nalus = append(nalus, nalu)
	}
	if len(nalus) > MaxNALUsPerAccessUnit {
		return nil, fmt.Errorf("NALU count %d exceeds maximum %d", len(nalus), MaxNALUsPerAccessUnit)
	}
	return nalus, nil
}

type startCode struct {
	pos int
	len int
}

func findStartCodes(data []byte) []startCode {
	var starts []startCode
	for i := 0; i+2 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 {
			if data[i+2] == 1 {
				starts = append(starts, startCode{pos: i, len: 3})
				i += 2
				continue
			}
			if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				starts = append(starts, startCode{pos: i, len: 4})
				i += 3
				continue
			}
		}
	}
	return starts
}

// JoinAnnexB re-encodes NALUs into an Annex-B byte stream using the
// four-byte start code, matching media.AnnexBPrefix.
func JoinAnnexB(nalus [][]byte) []byte {
	size := 0
	for _, n := range nalus {
		size += 4 + len(n)
	}
	buf := make([]byte, size)
	pos := 0
	for _, n := range nalus {
		pos += copy(buf[pos:], []byte{0, 0, 0, 1})
		pos += copy(buf[pos:], n)
	}
	return buf
}

// ParameterSets holds the most recently observed SPS/PPS NALUs, raw, for
// fmtp sprop-parameter-sets and mid-stream SDP regeneration.
type ParameterSets struct {
	SPS []byte
	PPS []byte
}

// Capture scans an access unit's NALUs and records any SPS/PPS present,
// overwriting previously captured values.
func (p *ParameterSets) Capture(nalus [][]byte) {
	for _, n := range nalus {
		if len(n) == 0 {
			continue
		}
		switch Type(n[0]) {
		case NALUTypeSPS:
			p.SPS = append([]byte(nil), n...)
		case NALUTypePPS:
			p.PPS = append([]byte(nil), n...)
		}
	}
}

// Ready reports whether both SPS and PPS have been captured.
func (p *ParameterSets) Ready() bool {
	return len(p.SPS) > 0 && len(p.PPS) > 0
}
