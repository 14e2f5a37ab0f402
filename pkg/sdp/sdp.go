// Package sdp builds and parses the single-video-track session
// descriptions exchanged in DESCRIBE/ANNOUNCE bodies (spec.md §4.1, §6),
// wrapping github.com/pion/sdp/v3 for the line-level grammar.
package sdp

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

// Codec names the video coding format carried by the track.
type Codec string

// Supported codecs.
const (
	CodecH264 Codec = "H264"
	CodecH265 Codec = "H265"
)

// Defaults spec.md §4.1 specifies for fields the source hasn't supplied
// yet (before the first keyframe has been observed).
const (
	DefaultWidth     = 1920
	DefaultHeight    = 1080
	DefaultFramerate = 30
	ClockRate        = 90000
	PayloadTypeH264  = 96
	PayloadTypeH265  = 97
)

// MediaInfo is the subset of session-description content the stack reads
// or writes: one video track, its codec parameters, and its control URL.
type MediaInfo struct {
	Codec       Codec
	PayloadType uint8
	Width       int
	Height      int
	Framerate   int
	Control     string

	// H.264: sprop-parameter-sets, each base64-encoded, in SPS,PPS order.
	SpropParameterSets []string

	// H.265: base64-encoded VPS/SPS/PPS, each optional individually.
	SpropVPS string
	SpropSPS string
	SpropPPS string
}

func defaultPayloadType(codec Codec) uint8 {
	if codec == CodecH265 {
		return PayloadTypeH265
	}
	return PayloadTypeH264
}

// Build renders a session description for the named stream, sourced at
// addr (used in the o= and c= lines per spec.md §4.1; 0.0.0.0 is valid
// and expected before a client connects).
func Build(name string, sessionID uint64, addr net.IP, info MediaInfo) ([]byte, error) {
	pt := info.PayloadType
	if pt == 0 {
		pt = defaultPayloadType(info.Codec)
	}
	width, height, fps := info.Width, info.Height, info.Framerate
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	if fps == 0 {
		fps = DefaultFramerate
	}
	if addr == nil {
		addr = net.IPv4zero
	}

	fmtp := buildFMTP(info)

	sd := &psdp.SessionDescription{
		Version: 0,
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      sessionID,
			SessionVersion: sessionID,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: addr.String(),
		},
		SessionName: psdp.SessionName(name),
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
		ConnectionInformation: &psdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &psdp.Address{Address: addr.String()},
		},
		MediaDescriptions: []*psdp.MediaDescription{
			{
				MediaName: psdp.MediaName{
					Media:   "video",
					Port:    psdp.RangedPort{Value: 0},
					Protos:  []string{"RTP", "AVP"},
					Formats: []string{strconv.Itoa(int(pt))},
				},
				Attributes: buildAttributes(pt, info, fmtp, width, height, fps),
			},
		},
	}

	return sd.Marshal()
}

func buildFMTP(info MediaInfo) string {
	var parts []string
	switch info.Codec {
	case CodecH264:
		parts = append(parts, "packetization-mode=1")
		if len(info.SpropParameterSets) > 0 {
			parts = append(parts, "sprop-parameter-sets="+strings.Join(info.SpropParameterSets, ","))
		}
	case CodecH265:
		if info.SpropVPS != "" {
			parts = append(parts, "sprop-vps="+info.SpropVPS)
		}
		if info.SpropSPS != "" {
			parts = append(parts, "sprop-sps="+info.SpropSPS)
		}
		if info.SpropPPS != "" {
			parts = append(parts, "sprop-pps="+info.SpropPPS)
		}
	}
	return strings.Join(parts, ";")
}

func buildAttributes(pt uint8, info MediaInfo, fmtp string, width, height, fps int) []psdp.Attribute {
	attrs := []psdp.Attribute{
		{Key: "rtpmap", Value: fmt.Sprintf("%d %s/%d", pt, info.Codec, ClockRate)},
	}
	if fmtp != "" {
		attrs = append(attrs, psdp.Attribute{Key: "fmtp", Value: fmt.Sprintf("%d %s", pt, fmtp)})
	}
	attrs = append(attrs,
		psdp.Attribute{Key: "framerate", Value: strconv.Itoa(fps)},
		psdp.Attribute{Key: "framesize", Value: fmt.Sprintf("%d %d-%d", pt, width, height)},
		psdp.Attribute{Key: "cliprect", Value: fmt.Sprintf("0,0,%d,%d", height, width)},
	)
	control := info.Control
	if control == "" {
		control = "trackID=0"
	}
	attrs = append(attrs, psdp.Attribute{Key: "control", Value: control})
	return attrs
}

// Parse extracts MediaInfo from a session-description body. Only the
// first video media section is inspected; spec.md §4.1 scopes the stack
// to a single video track.
func Parse(data []byte) (*MediaInfo, error) {
	var sd psdp.SessionDescription
	if err := sd.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("invalid session description: %w", err)
	}

	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media != "video" {
			continue
		}
		return parseMediaDescription(md)
	}
	return nil, fmt.Errorf("no video media section")
}

func parseMediaDescription(md *psdp.MediaDescription) (*MediaInfo, error) {
	if len(md.MediaName.Formats) == 0 {
		return nil, fmt.Errorf("media section has no payload type")
	}
	ptVal, err := strconv.Atoi(md.MediaName.Formats[0])
	if err != nil {
		return nil, fmt.Errorf("invalid payload type: %w", err)
	}

	info := &MediaInfo{PayloadType: uint8(ptVal)}

	rtpmap, _ := attributeValue(md.Attributes, "rtpmap")
	switch {
	case strings.Contains(rtpmap, "H264"):
		info.Codec = CodecH264
	case strings.Contains(rtpmap, "H265"):
		info.Codec = CodecH265
	default:
		return nil, fmt.Errorf("unsupported codec in rtpmap: %q", rtpmap)
	}

	if fmtp, ok := attributeValue(md.Attributes, "fmtp"); ok {
		parseFMTP(info, fmtp)
	}

	if framesize, ok := attributeValue(md.Attributes, "framesize"); ok {
		parseFramesize(info, framesize)
	}
	if info.Width == 0 || info.Height == 0 {
		if cliprect, ok := attributeValue(md.Attributes, "cliprect"); ok {
			parseCliprect(info, cliprect)
		}
	}
	if framerate, ok := attributeValue(md.Attributes, "framerate"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(framerate)); err == nil {
			info.Framerate = v
		}
	}
	if control, ok := attributeValue(md.Attributes, "control"); ok {
		info.Control = control
	}

	if info.Width == 0 {
		info.Width = DefaultWidth
	}
	if info.Height == 0 {
		info.Height = DefaultHeight
	}
	if info.Framerate == 0 {
		info.Framerate = DefaultFramerate
	}

	return info, nil
}

// parseFMTP strips the leading "<pt> " token fmtp values carry and
// splits the remaining ;-separated key=value list.
func parseFMTP(info *MediaInfo, fmtp string) {
	fields := strings.SplitN(fmtp, " ", 2)
	body := fmtp
	if len(fields) == 2 {
		body = fields[1]
	}
	for _, kv := range strings.Split(body, ";") {
		kv = strings.TrimSpace(kv)
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "sprop-parameter-sets":
			info.SpropParameterSets = strings.Split(parts[1], ",")
		case "sprop-vps":
			info.SpropVPS = parts[1]
		case "sprop-sps":
			info.SpropSPS = parts[1]
		case "sprop-pps":
			info.SpropPPS = parts[1]
		}
	}
}

func parseFramesize(info *MediaInfo, v string) {
	fields := strings.Fields(v)
	dims := v
	if len(fields) == 2 {
		dims = fields[1]
	}
	parts := strings.SplitN(dims, "-", 2)
	if len(parts) != 2 {
		return
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 == nil && err2 == nil {
		info.Width, info.Height = w, h
	}
}

// parseCliprect reads the "0,0,<height>,<width>" fallback spec.md §4.1
// allows when a=framesize is absent; note the field order is
// height-then-width, the opposite of framesize.
func parseCliprect(info *MediaInfo, v string) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return
	}
	h, errH := strconv.Atoi(strings.TrimSpace(parts[2]))
	w, errW := strconv.Atoi(strings.TrimSpace(parts[3]))
	if errH == nil && errW == nil {
		info.Width, info.Height = w, h
	}
}

func attributeValue(attrs []psdp.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
