package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
)

// Session is a Session header.
type Session struct {
	ID      string
	Timeout *uint
}

// Unmarshal decodes a Session header value.
func (h *Session) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}

	parts := strings.Split(v[0], ";")
	h.ID = parts[0]

	for _, part := range parts[1:] {
		part = strings.TrimLeft(part, " ")
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || kv[0] != "timeout" {
			continue
		}
		n, err := strconv.ParseUint(kv[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		uv := uint(n)
		h.Timeout = &uv
	}

	return nil
}

// Marshal encodes a Session header value.
func (h Session) Marshal() base.HeaderValue {
	v := h.ID
	if h.Timeout != nil {
		v += ";timeout=" + strconv.FormatUint(uint64(*h.Timeout), 10)
	}
	return base.HeaderValue{v}
}
