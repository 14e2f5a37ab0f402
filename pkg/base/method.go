package base

// Method is the method of a RTSP request.
type Method string

// Methods recognized by the wire codec (spec.md §4.1). Anything else is
// rejected with StatusNotImplemented.
const (
	Options      Method = "OPTIONS"
	Describe     Method = "DESCRIBE"
	Announce     Method = "ANNOUNCE"
	Setup        Method = "SETUP"
	Play         Method = "PLAY"
	Pause        Method = "PAUSE"
	Record       Method = "RECORD"
	GetParameter Method = "GET_PARAMETER"
	SetParameter Method = "SET_PARAMETER"
	Teardown     Method = "TEARDOWN"
)

// IsKnown reports whether m is one of the methods this stack implements.
func (m Method) IsKnown() bool {
	switch m {
	case Options, Describe, Announce, Setup, Play, Pause, Record,
		GetParameter, SetParameter, Teardown:
		return true
	}
	return false
}
