// Package headers implements the individual RTSP headers the core needs
// to read and write: WWW-Authenticate / Authorization (Basic and
// Digest-MD5 qop=auth), Transport, Session and RTP-Info.
package headers

import (
	"fmt"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
)

// AuthMethod is an authentication scheme.
type AuthMethod int

// Authentication schemes (spec.md §4.5: Basic and Digest-MD5 qop=auth).
const (
	AuthBasic AuthMethod = iota
	AuthDigest
)

// Authenticate is a WWW-Authenticate challenge header.
type Authenticate struct {
	Method AuthMethod
	Realm  string

	// Digest-only fields.
	Nonce string
	Qop   string // "auth"
	Stale bool
}

// Marshal encodes a WWW-Authenticate header value.
func (h Authenticate) Marshal() base.HeaderValue {
	if h.Method == AuthBasic {
		return base.HeaderValue{`Basic realm="` + h.Realm + `"`}
	}

	ret := `Digest realm="` + h.Realm + `", nonce="` + h.Nonce + `", algorithm=MD5`
	if h.Qop != "" {
		ret += `, qop="` + h.Qop + `"`
	}
	if h.Stale {
		ret += `, stale=true`
	}
	return base.HeaderValue{ret}
}

// Unmarshal decodes a WWW-Authenticate header value.
func (h *Authenticate) Unmarshal(v base.HeaderValue) error {
	if len(v) == 0 {
		return fmt.Errorf("value not provided")
	}
	if len(v) > 1 {
		return fmt.Errorf("value provided multiple times")
	}

	v0 := v[0]
	i := strings.IndexByte(v0, ' ')
	if i < 0 {
		return fmt.Errorf("unable to split method from fields: %q", v0)
	}
	method, rest := v0[:i], v0[i+1:]

	switch method {
	case "Basic":
		h.Method = AuthBasic
		kvs, err := keyValParse(rest, ',')
		if err != nil {
			return err
		}
		realm, ok := kvs["realm"]
		if !ok {
			return fmt.Errorf("realm is missing")
		}
		h.Realm = realm
		return nil

	case "Digest":
		h.Method = AuthDigest
		kvs, err := keyValParse(rest, ',')
		if err != nil {
			return err
		}
		realm, ok := kvs["realm"]
		if !ok {
			return fmt.Errorf("realm is missing")
		}
		nonce, ok := kvs["nonce"]
		if !ok {
			return fmt.Errorf("nonce is missing")
		}
		h.Realm = realm
		h.Nonce = nonce
		h.Qop = kvs["qop"]
		h.Stale = kvs["stale"] == "true" || kvs["stale"] == "TRUE"
		return nil

	default:
		return fmt.Errorf("invalid authentication method: %q", method)
	}
}
