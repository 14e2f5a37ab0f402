package h264

import "fmt"

const (
	rtpVersion            = 2
	defaultPayloadMaxSize = 1460
)

// Packetizer turns access units into RTP/H264 payloads per RFC 6184,
// emitting each NALU as its own packet (fragmenting oversized ones into
// FU-A), grounded on the teacher's pkg/format/rtph264.Encoder. STAP-A/B
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

// Payload is one RTP payload produced for one NALU batch, paired with
// whether it is the final packet of the access unit (RTP marker bit).
type Payload struct {
	Bytes  []byte
	Marker bool
}

// Packetize encodes one access unit (NALUs without start codes) into one
// or more RTP payloads: one packet per NALU, fragmented into FU-A when
// the NALU exceeds PayloadMaxSize. The last payload of the last NALU
// carries the marker bit.
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
		pkts, err := fragmentFUA(nalu, marker, max)
		if err != nil {
			return nil, err
		}
		out = append(out, pkts...)
	}
	return out, nil
}

func fragmentFUA(nalu []byte, marker bool, max int) ([]Payload, error) {
	if len(nalu) == 0 {
		return nil, fmt.Errorf("empty NALU")
	}
	avail := max - 2
	if avail <= 0 {
		return nil, fmt.Errorf("payload max size too small for FU-A")
	}
	nri := (nalu[0] >> 5) & 0x03
	typ := nalu[0] & 0x1F
	body := nalu[1:]

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
		data := make([]byte, 2+chunkLen)
		data[0] = (nri << 5) | byte(NALUTypeFUA)
		data[1] = (start << 7) | (end << 6) | typ
		copy(data[2:], body[:chunkLen])
		body = body[chunkLen:]

		out[i] = Payload{Bytes: data, Marker: marker && end == 1}
		start = 0
	}
	return out, nil
}

// ErrMorePacketsNeeded signals an incomplete FU-A fragment sequence; the
// caller should hold the packet and wait for the rest.
var ErrMorePacketsNeeded = fmt.Errorf("need more packets")

// Depacketizer reassembles access units from a sequence of RTP/H264
// payloads, handling STAP-A expansion and FU-A reassembly, grounded on
// the teacher's pkg/format/rtph264.Decoder.
type Depacketizer struct {
	fragments     [][]byte
	fragmentsSize int
	nextSeq       uint16
	haveFragment  bool
}

// Depacketize consumes one RTP payload, returning the NALUs it
// completed (nil, ErrMorePacketsNeeded if a fragment sequence is still
// in progress).
func (d *Depacketizer) Depacketize(seq uint16, payload []byte) ([][]byte, error) {
	if len(payload) < 1 {
		d.reset()
		return nil, fmt.Errorf("empty RTP payload")
	}

	typ := NALUType(payload[0] & 0x1F)
	switch typ {
	case NALUTypeFUA:
		return d.depacketizeFUA(seq, payload)
	case NALUTypeSTAPA:
		d.reset()
		return depacketizeSTAPA(payload)
	case NALUTypeSTAPB:
		d.reset()
		return depacketizeSTAPB(payload)
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

func (d *Depacketizer) depacketizeFUA(seq uint16, payload []byte) ([][]byte, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("invalid FU-A payload")
	}
	start := payload[1] >> 7
	end := (payload[1] >> 6) & 0x01

	if start == 1 {
		nri := (payload[0] >> 5) & 0x03
		typ := payload[1] & 0x1F
		d.fragments = [][]byte{{(nri << 5) | typ}, payload[2:]}
		d.fragmentsSize = 1 + len(payload[2:])
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
		return nil, fmt.Errorf("non-starting FU-A fragment without a previous start")
	}
	if seq != d.nextSeq {
		d.reset()
		return nil, fmt.Errorf("missing RTP packet, discarding fragment")
	}

	d.fragments = append(d.fragments, payload[2:])
	d.fragmentsSize += len(payload[2:])
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

func depacketizeSTAPA(payload []byte) ([][]byte, error) {
	return expandAggregated(payload[1:], "STAP-A")
}

// depacketizeSTAPB expands a STAP-B aggregation packet: identical to
// STAP-A except for a 2-byte DON (decoding order number) immediately
// after the NALU header, which this stack has no use for and discards.
func depacketizeSTAPB(payload []byte) ([][]byte, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("invalid STAP-B payload")
	}
	return expandAggregated(payload[3:], "STAP-B")
}

func expandAggregated(body []byte, label string) ([][]byte, error) {
	var nalus [][]byte
	for len(body) > 0 {
		if len(body) < 2 {
			return nil, fmt.Errorf("invalid %s payload", label)
		}
		size := int(body[0])<<8 | int(body[1])
		body = body[2:]
		if size > len(body) {
			return nil, fmt.Errorf("invalid %s NALU size", label)
		}
		nalus = append(nalus, body[:size])
		body = body[size:]
	}
	if len(nalus) == 0 {
		return nil, fmt.Errorf("%s packet contains no NALUs", label)
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
