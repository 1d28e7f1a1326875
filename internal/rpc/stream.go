package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dp-desktop/client/internal/models"
)

func websocketURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

// SubscribeDataEvent opens an event stream and waits for the server to
// acknowledge the subscription.
func (c *HTTPClient) SubscribeDataEvent(ctx context.Context, d models.SubscriptionDescriptor) (EventStream, error) {
	url := websocketURL(c.endpoints.IngestionStream) + PathSubscribeDataEvent
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}

	s := &wsStream{conn: conn, done: make(chan struct{})}
	if err := s.write(StreamMessage{Type: StreamSubscribe, Subscribe: &d}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscription: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	} else if c.timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	ack, err := s.read()
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read subscription ack: %w", err)
	}

	switch ack.Type {
	case StreamAck:
		s.id = ack.SubscriptionID
	case StreamExceptional:
		conn.Close()
		if ack.Exceptional != nil {
			return nil, ack.Exceptional.Err()
		}
		return nil, ErrEmptyResponse
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected stream message: %s", ack.Type)
	}

	logger.Infof("[Subscription %s] opened for %s", s.id, d.DisplayString())
	return s, nil
}

type wsStream struct {
	conn       *websocket.Conn
	id         string
	writeMu    sync.Mutex
	cancelling atomic.Bool
	done       chan struct{}
	doneOnce   sync.Once
}

func (s *wsStream) ID() string { return s.id }

func (s *wsStream) write(msg StreamMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsStream) read() (StreamMessage, error) {
	var msg StreamMessage
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode stream message: %w", err)
	}
	return msg, nil
}

func (s *wsStream) finish() {
	s.doneOnce.Do(func() {
		s.conn.Close()
		close(s.done)
	})
}

// Recv returns the next event, or io.EOF after a cancel or normal close.
func (s *wsStream) Recv() (models.DataEvent, error) {
	for {
		msg, err := s.read()
		if err != nil {
			s.finish()
			if s.cancelling.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return models.DataEvent{}, io.EOF
			}
			return models.DataEvent{}, fmt.Errorf("event stream failed: %w", err)
		}

		switch msg.Type {
		case StreamEvent:
			if msg.Event != nil {
				return *msg.Event, nil
			}
		case StreamCancelled:
			s.finish()
			return models.DataEvent{}, io.EOF
		case StreamExceptional:
			s.finish()
			if msg.Exceptional != nil {
				return models.DataEvent{}, msg.Exceptional.Err()
			}
			return models.DataEvent{}, errors.New("event stream ended with an exceptional result")
		}
	}
}

// Cancel sends the cancel request and waits for the receive side to see the
// stream end.
func (s *wsStream) Cancel(ctx context.Context) error {
	s.cancelling.Store(true)
	if err := s.write(StreamMessage{Type: StreamCancel, SubscriptionID: s.id}); err != nil {
		s.finish()
		return fmt.Errorf("failed to send cancel: %w", err)
	}

	select {
	case <-s.done:
		logger.Infof("[Subscription %s] cancelled", s.id)
		return nil
	case <-ctx.Done():
		s.finish()
		return fmt.Errorf("cancel not acknowledged: %w", ctx.Err())
	}
}
