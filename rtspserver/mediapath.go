package rtspserver

import (
	"sync"

	"github.com/oxflow/rtspflow/pkg/media"
)

// MediaPath is the path → {config, sessions, latest-IDR cache} mapping
// spec.md §3 describes. Invariant: a new subscriber receives the
// cached IDR before any subsequent P frame, or nothing until the next
// IDR is pushed.
type MediaPath struct {
	Config *PathConfig

	mu        sync.Mutex
	sessions  map[string]*ClientSession
	latestIDR *media.VideoFrame
}

// NewMediaPath allocates an empty MediaPath for config.
func NewMediaPath(config *PathConfig) *MediaPath {
	return &MediaPath{Config: config, sessions: make(map[string]*ClientSession)}
}

func (mp *MediaPath) addSession(s *ClientSession) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.sessions[s.ID] = s
}

func (mp *MediaPath) removeSession(id string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.sessions, id)
}

// primeWithCachedIDR enqueues the most recently seen IDR frame into a
// session that just transitioned to PLAYING, if one has been cached.
func (mp *MediaPath) primeWithCachedIDR(s *ClientSession, queueSize int) {
	mp.mu.Lock()
	idr := mp.latestIDR
	mp.mu.Unlock()
	if idr != nil {
		s.enqueue(idr, queueSize)
	}
}

// broadcast replaces the cached latest IDR (if f is one) and pushes a
// shared reference of f into every PLAYING session's bounded queue,
// without ever blocking on a slow consumer (spec.md §4.7).
func (mp *MediaPath) broadcast(f *media.VideoFrame, queueSize int) {
	mp.mu.Lock()
	if f.Type == media.FrameTypeIDR {
		mp.latestIDR = f
	}
	sessions := make([]*ClientSession, 0, len(mp.sessions))
	for _, s := range mp.sessions {
		sessions = append(sessions, s)
	}
	mp.mu.Unlock()

	for _, s := range sessions {
		if s.isPlaying() {
			s.enqueue(f, queueSize)
		}
	}
}

// closeAll tears down every session on the path, used when the path
// itself is removed.
func (mp *MediaPath) closeAll() {
	mp.mu.Lock()
	sessions := make([]*ClientSession, 0, len(mp.sessions))
	for _, s := range mp.sessions {
		sessions = append(sessions, s)
	}
	mp.sessions = make(map[string]*ClientSession)
	mp.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
}
