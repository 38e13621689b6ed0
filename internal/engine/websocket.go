package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer connects to IRC servers that carry one line per text
// frame, such as gateways speaking the IRCv3 WebSocket binding.
type WebSocketDialer struct {
	Path   string
	Dialer *websocket.Dialer
}

func (d WebSocketDialer) DialContext(ctx context.Context, host, port string) (io.ReadWriteCloser, error) {
	path := d.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, port), Path: path}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: %w (status %s)", u.String(), err, resp.Status)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", u.String(), err)
	}
	return &wsStream{ws: ws}, nil
}

// wsStream adapts a message-oriented websocket to the CRLF byte stream the
// engine frames. Only one goroutine may Read and one may Write at a time.
type wsStream struct {
	ws      *websocket.Conn
	pending []byte
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		_, msg, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		msg = bytes.TrimRight(msg, "\r\n")
		if len(msg) == 0 {
			continue
		}
		s.pending = append(msg, '\r', '\n')
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *wsStream) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, crlf) {
		if len(line) == 0 {
			continue
		}
		if err := s.ws.WriteMessage(websocket.TextMessage, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.ws.Close()
}
