package base

import (
	"bufio"
	"fmt"
	"io"
)

// InterleavedFrameMagic is the first byte of an interleaved frame
// (RFC 2326 §10.12: "$").
const InterleavedFrameMagic = 0x24

// InterleavedFrame carries RTP or RTCP bytes multiplexed into the
// control TCP connection as `$ <channel:u8> <len:u16-be> <payload>`.
type InterleavedFrame struct {
	Channel uint8
	Payload []byte
}

// ReadInterleavedFrame parses one interleaved frame from br.
func ReadInterleavedFrame(br *bufio.Reader) (*InterleavedFrame, error) {
	var header [4]byte
	_, err := io.ReadFull(br, header[:])
	if err != nil {
		return nil, err
	}

	if header[0] != InterleavedFrameMagic {
		return nil, fmt.Errorf("invalid interleaved frame magic byte (0x%.2x)", header[0])
	}

	payloadLen := int(uint16(header[2])<<8 | uint16(header[3]))
	payload := make([]byte, payloadLen)
	_, err = io.ReadFull(br, payload)
	if err != nil {
		return nil, err
	}

	return &InterleavedFrame{Channel: header[1], Payload: payload}, nil
}

// Marshal serializes the frame to wire bytes.
func (f *InterleavedFrame) Marshal() []byte {
	buf := make([]byte, 4+len(f.Payload))
	buf[0] = InterleavedFrameMagic
	buf[1] = f.Channel
	buf[2] = byte(len(f.Payload) >> 8)
	buf[3] = byte(len(f.Payload))
	copy(buf[4:], f.Payload)
	return buf
}
