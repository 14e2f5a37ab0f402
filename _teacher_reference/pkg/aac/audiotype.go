package aac

// MPEG4AudioType is the type of a MPEG-4 Audio stream.
type MPEG4AudioType int

// MPEG-4 Audio types.
const (
	MPEG4AudioTypeAACLC MPEG4AudioType = 2
)
