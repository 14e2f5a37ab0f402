package h265

import "fmt"

const defaultPayloadMaxSize = 1460

// Packetizer turns access units into RTP/H265 payloads per RFC 7798,
// emitting each NALU as its own packet (fragmenting oversized ones into
// FU), grounded on the teacher's pkg/format/rtph265.Encoder. AP
// aggregation is a decode-only concession to senders that use it; this
// stack never produces aggregated packets on encode.
type Packetizer struct {
	PayloadType    uint8
	PayloadMaxSize int
}

// NewPacketizer allocates a Packetizer with spec.md defaults applied.
func NewPacketizer(payloadType uint8) *Packetizer {
	return &Packetizer{PayloadType: payloadType, PayloadMaxSize: defaultPayloadMaxSize}
}

// Payload is one RTP payload produced for one NALU batch.
type Payload struct {
	Bytes  []byte
	Marker bool
}

// Packetize encodes one access unit into one or more RTP payloads: one
// packet per NALU, fragmented into FU when the NALU exceeds
// PayloadMaxSize. The last payload of the last NALU carries the marker.
func (p *Packetizer) Packetize(nalus [][]byte) ([]Payload, error) {
	max := p.PayloadMaxSize
	if max == 0 {
		max = defaultPayloadMaxSize
	}

	var out []Payload
	for i, nalu := range nalus {
		marker := i == len(nalus)-1
		if len(nalu) < max {
			out = append(out, Payload{Bytes: nalu, Marker: marker})
			continue
		}
		pkts, err := fragmentFU(nalu, marker, max)
		if err != nil {
			return nil, err
		}
		out = append(out, pkts...)
	}
	return out, nil
}

func fragmentFU(nalu []byte, marker bool, max int) ([]Payload, error) {
	if len(nalu) < 2 {
		return nil, fmt.Errorf("NALU too short for a two-byte header")
	}
	avail := max - 3
	if avail <= 0 {
		return nil, fmt.Errorf("payload max size too small for FU")
	}
	head := nalu[:2]
	body := nalu[2:]

	count := len(body) / avail
	if len(body)%avail != 0 {
		count++
	}
	if count == 0 {
		count = 1
	}

	out := make([]Payload, count)
	start := uint8(1)
	for i := 0; i < count; i++ {
		end := uint8(0)
		chunkLen := avail
		if i == count-1 {
			end = 1
			chunkLen = len(body)
		}
		data := make([]byte, 3+chunkLen)
		data[0] = head[0]&0b10000001 | byte(NALUTypeFU)<<1
		data[1] = head[1]
		data[2] = (start << 7) | (end << 6) | (head[0]>>1)&0b111111
		copy(data[3:], body[:chunkLen])
		body = body[chunkLen:]

		out[i] = Payload{Bytes: data, Marker: marker && end == 1}
		start = 0
	}
	return out, nil
}

// ErrMorePacketsNeeded signals an incomplete FU fragment sequence.
var ErrMorePacketsNeeded = fmt.Errorf("need more packets")

// Depacketizer reassembles access units from RTP/H265 payloads,
// grounded on the teacher's pkg/format/rtph265.Decoder.
type Depacketizer struct {
	fragments     [][]byte
	fragmentsSize int
	nextSeq       uint16
	haveFragment  bool
}

// Depacketize consumes one RTP payload, returning the NALUs completed.
func (d *Depacketizer) Depacketize(seq uint16, payload []byte) ([][]byte, error) {
	if len(payload) < 2 {
		d.reset()
		return nil, fmt.Errorf("payload too short for a NALU header")
	}

	typ := Type(payload[0])
	switch typ {
	case NALUTypeFU:
		return d.depacketizeFU(seq, payload)
	case NALUTypeAP:
		d.reset()
		return depacketizeAP(payload)
	default:
		d.reset()
		return [][]byte{payload}, nil
	}
}

func (d *Depacketizer) reset() {
	d.fragments = nil
	d.fragmentsSize = 0
	d.haveFragment = false
}

func (d *Depacketizer) depacketizeFU(seq uint16, payload []byte) ([][]byte, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("invalid FU payload")
	}
	start := payload[2] >> 7
	end := (payload[2] >> 6) & 0x01
	fuType := NALUType(payload[2] & 0x3F)

	if start == 1 {
		headByte0 := payload[0]&0b10000001 | byte(fuType)<<1
		headByte1 := payload[1]
		d.fragments = [][]byte{{headByte0, headByte1}, payload[3:]}
		d.fragmentsSize = 2 + len(payload[3:])
		d.nextSeq = seq + 1
		d.haveFragment = true

		if end == 1 {
			nalu := joinFragments(d.fragments, d.fragmentsSize)
			d.reset()
			return [][]byte{nalu}, nil
		}
		return nil, ErrMorePacketsNeeded
	}

	if !d.haveFragment {
		return nil, fmt.Errorf("non-starting FU fragment without a previous start")
	}
	if seq != d.nextSeq {
		d.reset()
		return nil, fmt.Errorf("missing RTP packet, discarding fragment")
	}

	d.fragments = append(d.fragments, payload[3:])
	d.fragmentsSize += len(payload[3:])
	d.nextSeq++

	if d.fragmentsSize > MaxNALUSize {
		d.reset()
		return nil, fmt.Errorf("fragmented NALU exceeds maximum size")
	}
	if end != 1 {
		return nil, ErrMorePacketsNeeded
	}

	nalu := joinFragments(d.fragments, d.fragmentsSize)
	d.reset()
	return [][]byte{nalu}, nil
}

func depacketizeAP(payload []byte) ([][]byte, error) {
	body := payload[2:]
	var nalus [][]byte
	for len(body) > 0 {
		if len(body) < 2 {
			return nil, fmt.Errorf("invalid AP payload")
		}
		size := int(body[0])<<8 | int(body[1])
		body = body[2:]
		if size > len(body) {
			return nil, fmt.Errorf("invalid AP NALU size")
		}
		nalus = append(nalus, body[:size])
		body = body[size:]
	}
	if len(nalus) == 0 {
		return nil, fmt.Errorf("AP packet contains no NALUs")
	}
	return nalus, nil
}

func joinFragments(fragments [][]byte, size int) []byte {
	out := make([]byte, size)
	n := 0
	for _, f := range fragments {
		n += copy(out[n:], f)
	}
	return out
}
