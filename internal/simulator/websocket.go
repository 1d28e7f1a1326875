package simulator

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/dp-desktop/client/internal/rpc"
)

// streamConn serialises writes to one websocket.
type streamConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *streamConn) read() (rpc.StreamMessage, error) {
	var msg rpc.StreamMessage
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := rpc.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode stream message: %w", err)
	}
	return msg, nil
}

func (c *streamConn) write(msg rpc.StreamMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := rpc.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}

func (c *streamConn) reject(message string) error {
	return c.write(rpc.StreamMessage{
		Type:        rpc.StreamExceptional,
		Exceptional: &rpc.ExceptionalResult{Kind: rpc.KindReject, Message: message},
	})
}

func (c *streamConn) closeNormally() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// pump writes queued messages until out is closed.
func (c *streamConn) pump(out <-chan rpc.StreamMessage, done chan<- struct{}) {
	defer close(done)
	for msg := range out {
		if err := c.write(msg); err != nil {
			logger.Debugf("[Stream] write failed: %v", err)
		}
	}
}

// StreamHandlerImpl serves one subscription per websocket connection.
type StreamHandlerImpl struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewStreamHandler creates the event stream handler.
func NewStreamHandler(hub *Hub) *StreamHandlerImpl {
	return &StreamHandlerImpl{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// HandleSubscribe upgrades the connection and runs the subscribe, event,
// cancel exchange.
func (s *StreamHandlerImpl) HandleSubscribe(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &streamConn{ws: ws}
	var sub *subscriber
	var writerDone chan struct{}
	stop := func() {
		if sub == nil {
			return
		}
		s.hub.remove(sub.id)
		sub.close()
		<-writerDone
		sub = nil
	}
	defer stop()

	for {
		msg, err := conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("[Stream] connection error: %v", err)
			}
			return nil
		}

		switch msg.Type {
		case rpc.StreamSubscribe:
			if sub != nil {
				conn.reject("a subscription is already open on this stream")
				continue
			}
			if msg.Subscribe == nil {
				conn.reject("subscribe request has no descriptor")
				return nil
			}
			next, err := s.hub.add(*msg.Subscribe)
			if err != nil {
				conn.reject(err.Error())
				return nil
			}
			sub, writerDone = next, make(chan struct{})
			go conn.pump(sub.out, writerDone)

		case rpc.StreamCancel:
			if sub == nil {
				conn.reject("no open subscription to cancel")
				continue
			}
			sub.send(rpc.StreamMessage{Type: rpc.StreamCancelled})
			stop()
			conn.closeNormally()
			return nil

		default:
			conn.reject(fmt.Sprintf("unknown message type: %s", msg.Type))
		}
	}
}
