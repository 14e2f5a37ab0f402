package rtpmpeg4video

import (
	"github.com/bluenviron/gortsplib/v4/pkg/format/rtpfragmented"
)

// Encoder is a RTP/MPEG-4 Video encoder.
//
// Deprecated: replaced by rtpfragmented.Encoder
type Encoder = rtpfragmented.Encoder
