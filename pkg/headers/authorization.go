package headers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oxflow/rtspflow/pkg/base"
)

// Authorization is an Authorization request header.
type Authorization struct {
	Method AuthMethod

	// Basic fields.
	BasicUser string
	BasicPass string

	// Digest fields.
	Username string
	Realm    string
	Nonce    string
	URI      string
	Response string
	Qop      string
	CNonce   string
	NC       string
}

// Marshal encodes an Authorization header value.
func (h Authorization) Marshal() base.HeaderValue {
	if h.Method == AuthBasic {
		return base.HeaderValue{"Basic " +
			base64.StdEncoding.EncodeToString([]byte(h.BasicUser+":"+h.BasicPass))}
	}

	ret := "Digest username=\"" + h.Username + "\", realm=\"" + h.Realm + "\", " +
		"nonce=\"" + h.Nonce + "\", uri=\"" + h.URI + "\", response=\"" + h.Response + "\", algorithm=MD5"

	if h.Qop != "" {
		ret += `, qop=` + h.Qop + `, nc=` + h.NC + `, cnonce="` + h.CNonce + `"`
	}

	return base.HeaderValue{ret}
}

// Unmarshal decodes an Authorization header value.
func (h *Authorization) Unmarshal(v base.HeaderValue) error {
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
		dec, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return fmt.Errorf("invalid base64 value: %w", err)
		}
		parts := strings.SplitN(string(dec), ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid Basic credentials")
		}
		h.BasicUser, h.BasicPass = parts[0], parts[1]
		return nil

	case "Digest":
		h.Method = AuthDigest
		kvs, err := keyValParse(rest, ',')
		if err != nil {
			return err
		}

		for _, req := range []string{"realm", "nonce", "username", "uri", "response"} {
			if _, ok := kvs[req]; !ok {
				return fmt.Errorf("%s is missing", req)
			}
		}

		h.Realm = kvs["realm"]
		h.Nonce = kvs["nonce"]
		h.Username = kvs["username"]
		h.URI = kvs["uri"]
		h.Response = kvs["response"]
		h.Qop = kvs["qop"]
		h.CNonce = kvs["cnonce"]
		h.NC = kvs["nc"]
		return nil

	default:
		return fmt.Errorf("invalid authorization method: %q", method)
	}
}
