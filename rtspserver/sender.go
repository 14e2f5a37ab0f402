package rtspserver

import (
	"time"

	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/codec/h264"
	"github.com/oxflow/rtspflow/pkg/codec/h265"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtcpsr"
	"github.com/oxflow/rtspflow/pkg/rtppkt"
)

type rtpPayload struct {
	Bytes  []byte
	Marker bool
}

func packetize(codec media.Codec, pt uint8, nalus [][]byte) ([]rtpPayload, error) {
	if codec == media.CodecH265 {
		pkts, err := h265.NewPacketizer(pt).Packetize(nalus)
		if err != nil {
			return nil, err
		}
		out := make([]rtpPayload, len(pkts))
		for i, p := range pkts {
			out[i] = rtpPayload{Bytes: p.Bytes, Marker: p.Marker}
		}
		return out, nil
	}
	pkts, err := h264.NewPacketizer(pt).Packetize(nalus)
	if err != nil {
		return nil, err
	}
	out := make([]rtpPayload, len(pkts))
	for i, p := range pkts {
		out[i] = rtpPayload{Bytes: p.Bytes, Marker: p.Marker}
	}
	return out, nil
}

func splitAnnexB(codec media.Codec, data []byte) ([][]byte, error) {
	if codec == media.CodecH265 {
		return h265.SplitAnnexB(data)
	}
	return h264.SplitAnnexB(data)
}

// runSender drains a PLAYING session's queue, packetizing each frame
// into RTP and writing it out over the negotiated transport. It exits
// when senderStopCh closes (PAUSE/TEARDOWN/disconnect).
func (s *ClientSession) runSender() {
	defer s.senderWG.Done()

	for {
		select {
		case <-s.senderStopCh:
			return
		case f, ok := <-s.queue:
			if !ok {
				return
			}
			if err := s.sendFrame(f); err != nil {
				s.log.Warnf("session %s: send error: %v", s.ID, err)
				return
			}
		}
	}
}

func (s *ClientSession) sendFrame(f *media.VideoFrame) error {
	nalus, err := splitAnnexB(f.Codec, f.Data)
	if err != nil {
		return err
	}

	s.pathConfig.observeKeyframe(f.Codec, nalus)

	payloads, err := packetize(f.Codec, s.payloadType, nalus)
	if err != nil {
		return err
	}

	rtpTS := uint32(f.PTSMs * 90)
	for _, p := range payloads {
		wire, err := rtppkt.Encode(s.payloadType, s.seq, rtpTS, s.ssrc, p.Marker, p.Bytes)
		if err != nil {
			return err
		}
		s.seq++

		if err := s.writeRTP(wire); err != nil {
			return err
		}

		s.rtcpCounters.Add(rtpTS, len(p.Bytes))
		s.sincePacketSR++
		if s.sincePacketSR >= s.rtcpInterval {
			s.sincePacketSR = 0
			if err := s.sendRTCPReport(); err != nil {
				s.log.Warnf("session %s: RTCP SR send error: %v", s.ID, err)
			}
		}
	}
	return nil
}

func (s *ClientSession) writeRTP(b []byte) error {
	if s.transport == TransportUDP {
		_, err := s.udp.rtpConn.Write(b)
		return err
	}
	frame := (&base.InterleavedFrame{Channel: s.interleaved[0], Payload: b}).Marshal()
	return s.writeLocked(frame)
}

func (s *ClientSession) writeRTCP(b []byte) error {
	if s.transport == TransportUDP {
		_, err := s.udp.rtcpConn.Write(b)
		return err
	}
	frame := (&base.InterleavedFrame{Channel: s.interleaved[1], Payload: b}).Marshal()
	return s.writeLocked(frame)
}

func (s *ClientSession) sendRTCPReport() error {
	b, err := rtcpsr.Build(&s.rtcpCounters, time.Now())
	if err != nil {
		return err
	}
	return s.writeRTCP(b)
}
