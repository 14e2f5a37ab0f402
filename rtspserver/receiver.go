package rtspserver

import (
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtppkt"
)

// runReceiverUDP reads RTP packets pushed by a RECORDING session's UDP
// peer and feeds them through the frame assembler until stopCh closes.
func (s *ClientSession) runReceiverUDP() {
	defer s.recvWG.Done()

	buf := make([]byte, 65536)
	for {
		n, err := s.udp.rtpConn.Read(buf)
		if err != nil {
			return
		}
		s.ingest(buf[:n])
	}
}

// ingest parses one RTP datagram (from UDP or a TCP-interleaved RTP
// channel) and, for each frame the assembler completes, broadcasts it
// on the session's path. Packets arriving before RECORD starts the
// receiver are dropped rather than buffered.
func (s *ClientSession) ingest(wire []byte) {
	if s.State() != StateRecording {
		return
	}

	pkt, err := rtppkt.Parse(wire)
	if err != nil {
		s.log.Warnf("session %s: dropping malformed RTP packet: %v", s.ID, err)
		return
	}

	s.touch()

	frames := s.assembler.Push(pkt.SequenceNumber, pkt.Timestamp, pkt.Marker, pkt.Payload)
	for _, f := range frames {
		s.observeKeyframeIngress(f)
		s.mediaPath.broadcast(f, s.queueSize)
	}
}

func (s *ClientSession) observeKeyframeIngress(f *media.VideoFrame) {
	if f.Type != media.FrameTypeIDR {
		return
	}
	nalus, err := splitAnnexB(f.Codec, f.Data)
	if err != nil {
		return
	}
	s.pathConfig.observeKeyframe(f.Codec, nalus)
}
