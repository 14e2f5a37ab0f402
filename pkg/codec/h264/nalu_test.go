package h264

import (
	"bytes"
	"testing"
)

func TestSplitAnnexBThreeAndFourByteStartCodes(t *testing.T) {
	data := append([]byte{0, 0, 1}, 0x67, 0xAA, 0xBB)
	data = append(data, []byte{0, 0, 0, 1}...)
	data = append(data, 0x68, 0xCC)

	nalus, err := SplitAnnexB(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nalus) != 2 {
		t.Fatalf("expected 2 NALUs, got %d", len(nalus))
	}
	if !bytes.Equal(nalus[0], []byte{0x67, 0xAA, 0xBB}) {
		t.Fatalf("first NALU mismatch: %x", nalus[0])
	}
	if !bytes.Equal(nalus[1], []byte{0x68, 0xCC}) {
		t.Fatalf("second NALU mismatch: %x", nalus[1])
	}
}

func TestSplitAnnexBNoStartCode(t *testing.T) {
	if _, err := SplitAnnexB([]byte{0x67, 0xAA}); err == nil {
		t.Fatal("expected an error for missing start code")
	}
}

func TestJoinAnnexBRoundTrip(t *testing.T) {
	nalus := [][]byte{{0x67, 0x01}, {0x68, 0x02, 0x03}}
	joined := JoinAnnexB(nalus)

	back, err := SplitAnnexB(joined)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(back) != 2 || !bytes.Equal(back[0], nalus[0]) || !bytes.Equal(back[1], nalus[1]) {
		t.Fatalf("round trip mismatch: %x", back)
	}
}

func TestParameterSetsCapture(t *testing.T) {
	var ps ParameterSets
	if ps.Ready() {
		t.Fatal("should not be ready before capture")
	}

	sps := []byte{byte(NALUTypeSPS), 0x01, 0x02}
	pps := []byte{byte(NALUTypePPS), 0x03}
	ps.Capture([][]byte{sps, pps})

	if !ps.Ready() {
		t.Fatal("expected ready after SPS+PPS capture")
	}
	if !bytes.Equal(ps.SPS, sps) || !bytes.Equal(ps.PPS, pps) {
		t.Fatalf("captured parameter sets mismatch: sps=%x pps=%x", ps.SPS, ps.PPS)
	}

	// A later SPS overwrites, PPS is untouched.
	sps2 := []byte{byte(NALUTypeSPS), 0x09}
	ps.Capture([][]byte{sps2})
	if !bytes.Equal(ps.SPS, sps2) {
		t.Fatalf("expected SPS overwrite, got %x", ps.SPS)
	}
	if !bytes.Equal(ps.PPS, pps) {
		t.Fatalf("PPS should be unchanged, got %x", ps.PPS)
	}
}

func TestIsKeyframeNALU(t *testing.T) {
	if !IsKeyframeNALU(NALUTypeIDR) {
		t.Fatal("IDR should be a keyframe")
	}
	if IsKeyframeNALU(NALUTypeNonIDR) {
		t.Fatal("non-IDR should not be a keyframe")
	}
}
