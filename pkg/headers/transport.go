package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
)

// Protocol is the transport protocol requested in a Transport header.
type Protocol int

// Protocols.
const (
	ProtocolUDP Protocol = iota
	ProtocolTCP
)

// Mode is the Transport "mode" parameter.
type Mode int

// Modes.
const (
	ModePlay Mode = iota
	ModeRecord
)

// Transport is a Transport header, covering both the UDP-pair and
// TCP-interleaved variants named in spec.md §6.
type Transport struct {
	Protocol Protocol

	ClientPorts    *[2]int
	ServerPorts    *[2]int
	InterleavedIDs *[2]int

	Mode *Mode
}

func parsePortPair(v string) (*[2]int, error) {
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid port pair: %q", v)
	}
	p0, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid port pair: %q", v)
	}
	p1, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid port pair: %q", v)
	}
	return &[2]int{p0, p1}, nil
}

// Unmarshal decodes a Transport header value.
func (h *Transport) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	parts := strings.Split(v[0], ";")
	switch parts[0] {
	case "RTP/AVP", "RTP/AVP/UDP":
		h.Protocol = ProtocolUDP
	case "RTP/AVP/TCP":
		h.Protocol = ProtocolTCP
	default:
		return fmt.Errorf("invalid protocol: %q", parts[0])
	}

	for _, p := range parts[1:] {
		switch {
		case strings.HasPrefix(p, "client_port="):
			pp, err := parsePortPair(p[len("client_port="):])
			if err != nil {
				return err
			}
			h.ClientPorts = pp

		case strings.HasPrefix(p, "server_port="):
			pp, err := parsePortPair(p[len("server_port="):])
			if err != nil {
				return err
			}
			h.ServerPorts = pp

		case strings.HasPrefix(p, "interleaved="):
			pp, err := parsePortPair(p[len("interleaved="):])
			if err != nil {
				return err
			}
			h.InterleavedIDs = pp

		case strings.HasPrefix(p, "mode="):
			str := strings.Trim(strings.ToLower(p[len("mode="):]), `"`)
			switch str {
			case "play":
				m := ModePlay
				h.Mode = &m
			case "record", "receive":
				m := ModeRecord
				h.Mode = &m
			default:
				return fmt.Errorf("invalid transport mode: %q", str)
			}
		}
	}

	return nil
}

// Marshal encodes a Transport header value.
func (h Transport) Marshal() base.HeaderValue {
	var parts []string

	if h.Protocol == ProtocolUDP {
		parts = append(parts, "RTP/AVP", "unicast")
	} else {
		parts = append(parts, "RTP/AVP/TCP", "unicast")
	}

	if h.ClientPorts != nil {
		parts = append(parts, fmt.Sprintf("client_port=%d-%d", h.ClientPorts[0], h.ClientPorts[1]))
	}
	if h.ServerPorts != nil {
		parts = append(parts, fmt.Sprintf("server_port=%d-%d", h.ServerPorts[0], h.ServerPorts[1]))
	}
	if h.InterleavedIDs != nil {
		parts = append(parts, fmt.Sprintf("interleaved=%d-%d", h.InterleavedIDs[0], h.InterleavedIDs[1]))
	}
	if h.Mode != nil {
		if *h.Mode == ModePlay {
			parts = append(parts, "mode=play")
		} else {
			parts = append(parts, "mode=record")
		}
	}

	return base.HeaderValue{strings.Join(parts, ";")}
}
