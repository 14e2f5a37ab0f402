package h265

import (
	"bytes"
	"testing"
)

func TestPacketizeSmallNALUsEmitOnePacketEach(t *testing.T) {
	p := NewPacketizer(96)
	nalus := [][]byte{
		{naluHeader(NALUTypeVPS), 0x00, 0x01},
		{naluHeader(NALUTypeSPS), 0x00, 0x02},
		{naluHeader(NALUTypeIDRWRADL), 0x00, 0x03, 0x04},
	}

	payloads, err := p.Packetize(nalus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) != 3 {
		t.Fatalf("expected one payload per NALU (no aggregation), got %d", len(payloads))
	}
	for i, pl := range payloads {
		if !bytes.Equal(pl.Bytes, nalus[i]) {
			t.Fatalf("payload %d mismatch: got %x want %x", i, pl.Bytes, nalus[i])
		}
	}
	if !payloads[len(payloads)-1].Marker {
		t.Fatal("last payload of the access unit must carry the marker bit")
	}
}

func TestDepacketizeAPExpandsAggregatedPacket(t *testing.T) {
	// AP is decode-only: this stack never produces it, but must still
	// expand one received from a peer that does.
	nalus := [][]byte{
		{naluHeader(NALUTypeVPS), 0x00, 0x01},
		{naluHeader(NALUTypeSPS), 0x00, 0x02},
	}
	payload := []byte{byte(NALUTypeAP) << 1, 0x01}
	for _, n := range nalus {
		payload = append(payload, byte(len(n)>>8), byte(len(n)))
		payload = append(payload, n...)
	}

	var d Depacketizer
	out, err := d.Depacketize(0, payload)
	if err != nil {
		t.Fatalf("depacketize error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 NALUs back out, got %d", len(out))
	}
	for i := range nalus {
		if !bytes.Equal(out[i], nalus[i]) {
			t.Fatalf("NALU %d mismatch: got %x want %x", i, out[i], nalus[i])
		}
	}
}

func TestPacketizeOversizedNALUFragmentsIntoFU(t *testing.T) {
	p := NewPacketizer(96)
	p.PayloadMaxSize = 16

	nalu := append([]byte{naluHeader(NALUTypeIDRWRADL), 0x00}, make([]byte, 40)...)
	for i := range nalu[2:] {
		nalu[i+2] = byte(i)
	}

	payloads, err := p.Packetize([][]byte{nalu})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) < 2 {
		t.Fatalf("expected multiple FU fragments, got %d", len(payloads))
	}
	for i, pl := range payloads {
		if Type(pl.Bytes[0]) != NALUTypeFU {
			t.Fatalf("fragment %d: expected FU type", i)
		}
	}
	if !payloads[len(payloads)-1].Marker {
		t.Fatal("final fragment must carry the marker bit")
	}

	var d Depacketizer
	var reassembled [][]byte
	for i, pl := range payloads {
		nalusOut, err := d.Depacketize(uint16(i), pl.Bytes)
		if err == ErrMorePacketsNeeded {
			continue
		}
		if err != nil {
			t.Fatalf("depacketize error: %v", err)
		}
		reassembled = nalusOut
	}
	if len(reassembled) != 1 || !bytes.Equal(reassembled[0], nalu) {
		t.Fatalf("reassembled NALU mismatch: got %x want %x", reassembled, nalu)
	}
}

func TestDepacketizeFUMissingPacketDiscardsFragment(t *testing.T) {
	p := NewPacketizer(96)
	p.PayloadMaxSize = 16
	nalu := append([]byte{naluHeader(NALUTypeIDRWRADL), 0x00}, make([]byte, 40)...)

	payloads, err := p.Packetize([][]byte{nalu})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) < 3 {
		t.Fatalf("need at least 3 fragments for this test, got %d", len(payloads))
	}

	var d Depacketizer
	if _, err := d.Depacketize(0, payloads[0].Bytes); err != ErrMorePacketsNeeded {
		t.Fatalf("expected ErrMorePacketsNeeded, got %v", err)
	}
	if _, err := d.Depacketize(2, payloads[2].Bytes); err == nil {
		t.Fatal("expected an error for a gap in the fragment sequence")
	}
}

func TestDepacketizeSingleNALUPassthrough(t *testing.T) {
	var d Depacketizer
	nalu := []byte{naluHeader(NALUTypeIDRWRADL), 0x00, 0x01}
	out, err := d.Depacketize(0, nalu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || !bytes.Equal(out[0], nalu) {
		t.Fatalf("expected passthrough of a single NALU, got %x", out)
	}
}
