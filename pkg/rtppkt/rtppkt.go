// Package rtppkt implements C2, the RTP packet codec: it wraps
// github.com/pion/rtp for the 12-byte header, CSRC, extension and
// padding handling, adding only the rule spec.md §4.2 layers on top
// ("any packet with header_len > packet_len is dropped silently").
package rtppkt

import (
	"fmt"

	"github.com/pion/rtp"
)

// Packet is a parsed RTP packet, exposing exactly the fields the rest
// of the stack needs.
type Packet struct {
	Version        uint8
	Padding        bool
	Extension      bool
	Marker         bool
	PayloadType    uint8
	SequenceNumber uint16
	Timestamp      uint32
	SSRC           uint32
	CSRC           []uint32
	Payload        []byte
}

// Encode builds RTP wire bytes with V=2, P=0, X=0, CC=0, per spec.md
// §4.2.
func Encode(pt uint8, seq uint16, ts uint32, ssrc uint32, marker bool, payload []byte) ([]byte, error) {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    pt,
			SequenceNumber: seq,
			Timestamp:      ts,
			SSRC:           ssrc,
			Marker:         marker,
		},
		Payload: payload,
	}
	return pkt.Marshal()
}

// Parse decodes RTP wire bytes. It validates V==2 and drops (returns an
// error for) any packet whose declared header length exceeds the total
// packet length, which pion/rtp itself refuses to decode, matching the
// spec's "dropped silently" rule at the caller level — the caller is
// expected to log-and-skip, not propagate a wire error upward.
func Parse(data []byte) (*Packet, error) {
	var pkt rtp.Packet
	err := pkt.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("malformed RTP packet: %w", err)
	}
	if pkt.Version != 2 {
		return nil, fmt.Errorf("unsupported RTP version: %d", pkt.Version)
	}

	return &Packet{
		Version:        pkt.Version,
		Padding:        pkt.Padding,
		Extension:      pkt.Extension,
		Marker:         pkt.Marker,
		PayloadType:    pkt.PayloadType,
		SequenceNumber: pkt.SequenceNumber,
		Timestamp:      pkt.Timestamp,
		SSRC:           pkt.SSRC,
		CSRC:           pkt.CSRC,
		Payload:        pkt.Payload,
	}, nil
}
