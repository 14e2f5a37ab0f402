package h264

import (
	"bytes"
	"testing"
)

func TestPacketizeSmallNALUsEmitOnePacketEach(t *testing.T) {
	p := NewPacketizer(96)
	nalus := [][]byte{
		{byte(NALUTypeSPS), 0x01, 0x02},
		{byte(NALUTypePPS), 0x03},
		{byte(NALUTypeIDR), 0x04, 0x05, 0x06},
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
	for _, pl := range payloads[:len(payloads)-1] {
		if pl.Marker {
			t.Fatal("only the final NALU's payload may carry the marker bit")
		}
	}
	if !payloads[len(payloads)-1].Marker {
		t.Fatal("last payload of the access unit must carry the marker bit")
	}
}

func TestPacketizeOversizedNALUFragmentsIntoFUA(t *testing.T) {
	p := NewPacketizer(96)
	p.PayloadMaxSize = 16

	nalu := append([]byte{byte(NALUTypeIDR)}, make([]byte, 40)...)
	for i := range nalu[1:] {
		nalu[i+1] = byte(i)
	}

	payloads, err := p.Packetize([][]byte{nalu})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) < 2 {
		t.Fatalf("expected multiple FU-A fragments, got %d", len(payloads))
	}
	for i, pl := range payloads {
		if Type(pl.Bytes[0]) != NALUTypeFUA {
			t.Fatalf("fragment %d: expected FU-A type", i)
		}
	}
	if !payloads[len(payloads)-1].Marker {
		t.Fatal("final fragment must carry the marker bit")
	}
	for _, pl := range payloads[:len(payloads)-1] {
		if pl.Marker {
			t.Fatal("only the final fragment may carry the marker bit")
		}
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

func TestDepacketizeFUAMissingPacketDiscardsFragment(t *testing.T) {
	p := NewPacketizer(96)
	p.PayloadMaxSize = 16
	nalu := append([]byte{byte(NALUTypeIDR)}, make([]byte, 40)...)

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
	// Skip a fragment (sequence 1 never arrives) then feed sequence 2.
	if _, err := d.Depacketize(2, payloads[2].Bytes); err == nil {
		t.Fatal("expected an error for a gap in the fragment sequence")
	}
}

func TestDepacketizeSTAPBExpandsPastTheDON(t *testing.T) {
	nalus := [][]byte{
		{byte(NALUTypeSPS), 0x01, 0x02},
		{byte(NALUTypePPS), 0x03},
	}

	// STAP-B is STAP-A with a 2-byte decoding order number spliced in
	// right after the NALU header.
	payload := []byte{byte(NALUTypeSTAPB), 0x00, 0x01}
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

func TestDepacketizeSingleNALUPassthrough(t *testing.T) {
	var d Depacketizer
	nalu := []byte{byte(NALUTypeIDR), 0x01, 0x02}
	out, err := d.Depacketize(0, nalu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || !bytes.Equal(out[0], nalu) {
		t.Fatalf("expected passthrough of a single NALU, got %x", out)
	}
}
