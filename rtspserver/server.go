package rtspserver

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/rtsplog"
)

// Server accepts RTSP control connections, routes them to paths by
// exact string match, and owns broadcast fan-out for every path it
// serves (spec.md §4.7).
type Server struct {
	cfg Config
	log rtsplog.Logger

	listener net.Listener

	mu    sync.Mutex
	paths map[string]*MediaPath

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewServer allocates a Server. Logger may be nil (logs are discarded).
func NewServer(cfg Config, logger rtsplog.Func) *Server {
	cfg.defaults()
	return &Server{
		cfg:    cfg,
		log:    rtsplog.New(logger),
		paths:  make(map[string]*MediaPath),
		stopCh: make(chan struct{}),
	}
}

// AddPath registers path with config, creating an empty MediaPath ready
// to accept subscribers and, if config allows RECORD, a publisher.
func (srv *Server) AddPath(config *PathConfig) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.paths[config.Path] = NewMediaPath(config)
}

// RemovePath terminates every session on path and removes it.
func (srv *Server) RemovePath(path string) {
	srv.mu.Lock()
	mp, ok := srv.paths[path]
	delete(srv.paths, path)
	srv.mu.Unlock()

	if ok {
		mp.closeAll()
	}
}

func (srv *Server) path(p string) (*MediaPath, bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	mp, ok := srv.paths[p]
	return mp, ok
}

// PushFrame lets an in-process producer (one not driving RECORD over
// the wire) inject a frame directly onto path (spec.md §4.7's
// server.pushFrame).
func (srv *Server) PushFrame(path string, f *media.VideoFrame) error {
	mp, ok := srv.path(path)
	if !ok {
		return fmt.Errorf("unknown path: %s", path)
	}
	nalus, err := splitAnnexB(f.Codec, f.Data)
	if err == nil {
		mp.Config.observeKeyframe(f.Codec, nalus)
	}
	mp.broadcast(f, srv.cfg.QueueSize)
	return nil
}

// ListenAndServe binds the configured address and serves connections
// until Close is called.
func (srv *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", srv.cfg.Host, srv.cfg.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv.listener = l

	srv.wg.Add(1)
	go srv.cleanupLoop()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-srv.stopCh:
				return nil
			default:
				return err
			}
		}
		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handleConn(conn)
		}()
	}
}

// Close stops accepting connections, tears down every path's sessions,
// and waits (up to timeout) for background goroutines to exit.
func (srv *Server) Close(timeout time.Duration) bool {
	srv.closeOnce.Do(func() {
		close(srv.stopCh)
		if srv.listener != nil {
			srv.listener.Close()
		}

		srv.mu.Lock()
		paths := make([]*MediaPath, 0, len(srv.paths))
		for _, mp := range srv.paths {
			paths = append(paths, mp)
		}
		srv.mu.Unlock()

		for _, mp := range paths {
			mp.closeAll()
		}
	})

	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (srv *Server) cleanupLoop() {
	defer srv.wg.Done()
	t := time.NewTicker(srv.cfg.CleanupSweepInterval)
	defer t.Stop()

	for {
		select {
		case <-srv.stopCh:
			return
		case <-t.C:
			srv.sweepIdleSessions()
		}
	}
}

// sweepIdleSessions stops and removes any session whose last RTSP
// activity exceeds session_timeout_ms (spec.md §4.7 and §9 Open
// Question #2: idle timeout is measured against last RTSP activity
// only, not RTP-send activity, to avoid racing under heavy streaming).
func (srv *Server) sweepIdleSessions() {
	srv.mu.Lock()
	paths := make([]*MediaPath, 0, len(srv.paths))
	for _, mp := range srv.paths {
		paths = append(paths, mp)
	}
	srv.mu.Unlock()

	for _, mp := range paths {
		mp.mu.Lock()
		var stale []*ClientSession
		for _, s := range mp.sessions {
			if s.idleSince() > srv.cfg.SessionTimeout {
				stale = append(stale, s)
			}
		}
		mp.mu.Unlock()

		for _, s := range stale {
			srv.log.Infof("session %s idle, tearing down", s.ID)
			mp.removeSession(s.ID)
			s.stop()
		}
	}
}
