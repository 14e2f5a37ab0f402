package rtspserver

import (
	"github.com/oxflow/rtspflow/pkg/base"
	"github.com/oxflow/rtspflow/pkg/digestauth"
)

// checkAuth validates req's Authorization header against ch.validator,
// writing a 401 challenge and returning false when it's missing,
// malformed, or stale (spec.md §4.5). OPTIONS is never routed here; the
// caller exempts it.
func (ch *connHandler) checkAuth(req *base.Request) bool {
	hv := req.Header.Values("Authorization")
	if len(hv) == 0 {
		ch.challenge(req, false)
		return false
	}

	err := ch.validator.Validate(hv, req.Method, req.URL)
	if err == nil {
		return true
	}
	if err == digestauth.ErrStaleNonce {
		ch.challenge(req, true)
		return false
	}
	ch.challenge(req, false)
	return false
}

func (ch *connHandler) challenge(req *base.Request, stale bool) {
	h := base.NewHeader()
	for _, v := range ch.validator.Challenge(stale) {
		h.Add("WWW-Authenticate", v)
	}
	ch.writeResponse(req, base.StatusUnauthorized, h, nil)
}
