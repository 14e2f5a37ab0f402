// Package h265 implements the RFC 7798 payload format: two-byte NAL
// unit headers, AP (type 48) aggregation, and FU (type 49)
// fragmentation, grounded on the teacher's pkg/codecs/h265 (NALU types)
// and pkg/format/rtph265 (packetizer/decoder state machine). As in
// package h264, parameter sets are captured as raw bytes for fmtp
// sprop-vps/-sps/-pps; no Exp-Golomb parsing is performed.
package h265

import "fmt"

// NALUType is the six-bit NAL unit type field (bits 1-6 of the first
// header byte).
type NALUType uint8

// Types spec.md's packetizer/depacketizer and VPS/SPS/PPS capture need.
const (
	NALUTypeBLAWLP   NALUType = 16
	NALUTypeBLAWRADL NALUType = 17
	NALUTypeBLANLP   NALUType = 18
	NALUTypeIDRWRADL NALUType = 19
	NALUTypeIDRNLP   NALUType = 20
	NALUTypeCRANUT   NALUType = 21
	NALUTypeVPS      NALUType = 32
	NALUTypeSPS      NALUType = 33
	NALUTypePPS      NALUType = 34
	NALUTypeAP       NALUType = 48
	NALUTypeFU       NALUType = 49
)

// MaxNALUSize and MaxNALUsPerAccessUnit mirror the h264 package's
// bounds.
const (
	MaxNALUSize           = 4 * 1024 * 1024
	MaxNALUsPerAccessUnit = 64
)

// Type extracts the NALU type from a two-byte H.265 NAL unit header.
func Type(naluHeader0 byte) NALUType {
	return NALUType((naluHeader0 >> 1) & 0x3F)
}

// IsKeyframeNALU reports whether typ is an IRAP slice type that can
// anchor SPS/PPS/VPS auto-fill (BLA_W_LP through CRA_NUT, types 16-21).
func IsKeyframeNALU(typ NALUType) bool {
	return typ >= NALUTypeBLAWLP && typ <= NALUTypeCRANUT
}

// SplitAnnexB splits an Annex-B stream into individual NALUs. The
// algorithm is identical to h264's; it's reimplemented here rather than
// shared to keep the two codec packages independently self-contained,
// matching how the teacher keeps pkg/codecs/h264 and pkg/codecs/h265
// separate despite the overlap.
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

// JoinAnnexB re-encodes NALUs into an Annex-B byte stream.
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

// ParameterSets holds the most recently observed VPS/SPS/PPS NALUs.
type ParameterSets struct {
	VPS []byte
	SPS []byte
	PPS []byte
}

// Capture scans an access unit's NALUs and records any VPS/SPS/PPS
// present, overwriting previously captured values.
func (p *ParameterSets) Capture(nalus [][]byte) {
	for _, n := range nalus {
		if len(n) == 0 {
			continue
		}
		switch Type(n[0]) {
		case NALUTypeVPS:
			p.VPS = append([]byte(nil), n...)
		case NALUTypeSPS:
			p.SPS = append([]byte(nil), n...)
		case NALUTypePPS:
			p.PPS = append([]byte(nil), n...)
		}
	}
}

// Ready reports whether VPS, SPS and PPS have all been captured.
func (p *ParameterSets) Ready() bool {
	return len(p.VPS) > 0 && len(p.SPS) > 0 && len(p.PPS) > 0
}
