package headers

import (
	"fmt"

	"github.com/oxflow/rtspflow/pkg/base"
)

// RTPInfo is the RTP-Info header emitted on a PLAY response, pointing the
// client at the sequence number and RTP timestamp of the first packet
// that will be sent for the track.
type RTPInfo struct {
	URL            string
	SequenceNumber uint16
	RTPTime        uint32
}

// Marshal encodes a RTP-Info header value.
func (h RTPInfo) Marshal() base.HeaderValue {
	return base.HeaderValue{fmt.Sprintf("url=%s;seq=%d;rtptime=%d", h.URL, h.SequenceNumber, h.RTPTime)}
}
