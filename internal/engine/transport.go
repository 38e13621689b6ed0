package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soyeahso/irccore/internal/logging"
)

// ErrNotOpen is returned by Write when the stream is not connected.
var ErrNotOpen = errors.New("transport not open")

// DrainTimeout bounds how long Abort waits for queued bytes to be written.
const DrainTimeout = 2 * time.Second

// Dialer opens a byte stream to host:port.
type Dialer interface {
	DialContext(ctx context.Context, host, port string) (io.ReadWriteCloser, error)
}

// TCPDialer dials plain TCP.
type TCPDialer struct {
	Timeout time.Duration
}

func (d TCPDialer) DialContext(ctx context.Context, host, port string) (io.ReadWriteCloser, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	return nd.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
}

// StreamTransport runs a Dialer's stream on background goroutines and
// reports back to its Sink through a Loop.
type StreamTransport struct {
	loop   *Loop
	dialer Dialer
	log    *logging.Logger

	mu   sync.Mutex
	sess *session
}

// NewStreamTransport creates a transport whose callbacks run on loop.
func NewStreamTransport(loop *Loop, dialer Dialer, log *logging.Logger) *StreamTransport {
	return &StreamTransport{
		loop:   loop,
		dialer: dialer,
		log:    log.Sub("transport"),
	}
}

type session struct {
	t      *StreamTransport
	sink   Sink
	ctx    context.Context
	cancel context.CancelFunc
	out    chan []byte

	inFlight atomic.Int64
	open     atomic.Bool

	mu        sync.Mutex
	conn      io.ReadWriteCloser
	aborted   bool
	closeOnce sync.Once
}

// Open starts dialing in the background. Any previous session is aborted.
func (t *StreamTransport) Open(host, port string, sink Sink) error {
	if host == "" {
		return errors.New("no host given")
	}
	if port == "" {
		return errors.New("no port given")
	}
	t.Abort()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		t:      t,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan []byte, 1024),
	}
	t.mu.Lock()
	t.sess = s
	t.mu.Unlock()

	go s.run(host, port)
	return nil
}

// Write queues p for the writer goroutine.
func (t *StreamTransport) Write(p []byte) error {
	s := t.current()
	if s == nil || !s.open.Load() {
		return ErrNotOpen
	}
	s.inFlight.Add(int64(len(p)))
	select {
	case s.out <- p:
		return nil
	default:
		s.inFlight.Add(-int64(len(p)))
		return fmt.Errorf("write queue full (%d bytes in flight)", s.inFlight.Load())
	}
}

// InFlight returns the number of queued bytes not yet written.
func (t *StreamTransport) InFlight() int {
	s := t.current()
	if s == nil {
		return 0
	}
	return int(s.inFlight.Load())
}

// IsOpen reports whether the current session is connected.
func (t *StreamTransport) IsOpen() bool {
	s := t.current()
	return s != nil && s.open.Load()
}

// Abort ends the current session. Bytes already queued are flushed for at
// most DrainTimeout before the stream is closed.
func (t *StreamTransport) Abort() {
	t.mu.Lock()
	s := t.sess
	t.sess = nil
	t.mu.Unlock()
	if s == nil {
		return
	}

	s.open.Store(false)
	s.mu.Lock()
	s.aborted = true
	conn := s.conn
	s.mu.Unlock()

	close(s.out)
	s.cancel()
	if conn != nil {
		time.AfterFunc(DrainTimeout, s.close)
	}
}

func (t *StreamTransport) current() *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess
}

// post runs f on the loop unless the session has been replaced meanwhile.
func (s *session) post(f func()) {
	s.t.loop.Post(func() {
		if s.t.current() != s {
			return
		}
		f()
	})
}

func (s *session) run(host, port string) {
	conn, err := s.t.dialer.DialContext(s.ctx, host, port)
	if err != nil {
		s.t.log.Debug().Err(err).Str("host", host).Msg("dial failed")
		s.post(func() { s.sink.HandleError(err) })
		return
	}

	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	s.t.log.Debug().Str("host", host).Str("port", port).Msg("stream open")
	go s.writeLoop(conn)
	s.post(func() {
		s.open.Store(true)
		s.sink.HandleConnected()
	})
	s.readLoop(conn)
}

func (s *session) readLoop(conn io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.post(func() { s.sink.HandleData(data) })
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("connection closed by peer")
			}
			s.post(func() { s.sink.HandleError(err) })
			s.close()
			return
		}
	}
}

func (s *session) writeLoop(conn io.Writer) {
	defer s.close()
	for p := range s.out {
		if _, err := conn.Write(p); err != nil {
			s.post(func() { s.sink.HandleError(err) })
			return
		}
		after := s.inFlight.Add(-int64(len(p)))
		if after < LowWaterMark && after+int64(len(p)) >= LowWaterMark {
			s.post(s.sink.HandleDrained)
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
	})
}
