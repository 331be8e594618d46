package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var dialer = websocket.Dialer{
	HandshakeTimeout: 5 * time.Second,
}

// WSStream adapts a WebSocket connection carrying binary messages to a
// Stream, for serial-over-network bridges that expose a device's port over
// a socket. A background goroutine pumps incoming messages so Read can
// present serial semantics: (0, nil) when nothing is pending.
type WSStream struct {
	conn      *websocket.Conn
	incoming  chan []byte
	current   []byte
	pumpDone  chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// DialWS connects to a ws:// or wss:// bridge endpoint.
func DialWS(url string) (*WSStream, error) {
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", url, err)
	}
	s := &WSStream{
		conn:     conn,
		incoming: make(chan []byte, 16),
		pumpDone: make(chan struct{}),
		closed:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *WSStream) readLoop() {
	defer close(s.pumpDone)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case s.incoming <- data:
		case <-s.closed:
			return
		}
	}
}

func (s *WSStream) Read(p []byte) (int, error) {
	if len(s.current) == 0 {
		select {
		case msg := <-s.incoming:
			s.current = msg
		case <-s.pumpDone:
			// Drain anything the pump queued before it stopped.
			select {
			case msg := <-s.incoming:
				s.current = msg
			default:
				return 0, fmt.Errorf("transport: bridge connection closed")
			}
		case <-time.After(portPoll):
			return 0, nil
		}
	}
	n := copy(p, s.current)
	s.current = s.current[n:]
	return n, nil
}

func (s *WSStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, fmt.Errorf("transport: bridge write: %w", err)
	}
	return len(p), nil
}

func (s *WSStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}
