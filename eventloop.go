package abrtsp

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/fancong5201314/abrtsp/pkg/base"
)

// idleSleep is how long the event loop waits before re-checking for
// clients when the registry is empty.
const idleSleep = 50 * time.Millisecond

// eventLoop drives request handling for every accepted control connection
// from a single goroutine. There is no portable way to select across an
// arbitrary set of net.Conn values in Go, so each connection is polled in
// turn with a short read deadline instead.
type eventLoop struct {
	registry    *sessionRegistry
	engine      *rtspEngine
	readTimeout time.Duration
	logger      Logger

	quit chan struct{}
	done chan struct{}
}

func newEventLoop(registry *sessionRegistry, engine *rtspEngine, readTimeout time.Duration, logger Logger) *eventLoop {
	return &eventLoop{
		registry:    registry,
		engine:      engine,
		readTimeout: readTimeout,
		logger:      logger,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (l *eventLoop) start() {
	go l.run()
}

func (l *eventLoop) stop() {
	close(l.quit)
	<-l.done
}

func (l *eventLoop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.quit:
			return
		default:
		}

		conns := l.registry.snapshot()
		if len(conns) == 0 {
			time.Sleep(idleSleep)
			continue
		}

		for _, conn := range conns {
			s, ok := l.registry.get(conn)
			if !ok || s.closed {
				continue
			}

			l.poll(s)
		}

		l.registry.compact()
	}
}

func (l *eventLoop) poll(s *clientSession) {
	if err := s.conn.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
		return
	}

	var req base.Request
	err := req.Read(s.br)
	if err != nil {
		if isTimeout(err) {
			return
		}

		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
			s.conn.Close()
			s.closed = true
			return
		}

		l.logger.Warnf("request from %v: %v", s.peerAddr, err)
		return
	}

	l.registry.mu.Lock()
	res := l.engine.handle(s, &req)
	l.registry.mu.Unlock()

	bw := bufio.NewWriter(s.conn)
	if err := res.Write(bw); err != nil {
		l.logger.Warnf("response to %v: %v", s.peerAddr, err)
	}

	if req.Method == base.Teardown {
		s.conn.Close()
		s.closed = true
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
