package simulator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/rpc"
)

// outboxSize bounds the messages queued for one slow subscriber.
const outboxSize = 256

var errDuplicateID = errors.New("subscription id already registered")

// subscriber is one open subscription. Messages queued on out are written
// in order by the connection's writer.
type subscriber struct {
	id        string
	desc      models.SubscriptionDescriptor
	threshold float64

	mu     sync.Mutex
	closed bool
	out    chan rpc.StreamMessage
}

func (s *subscriber) send(msg rpc.StreamMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	msg.SubscriptionID = s.id
	msg.Timestamp = time.Now().UnixMilli()
	select {
	case s.out <- msg:
		return true
	default:
		logger.Warnf("[Subscription %s] outbox full, dropping %s", logging.ShortID(s.id), msg.Type)
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// matches applies the subscription's trigger to v.
func (s *subscriber) matches(v models.DataValue) bool {
	f, ok := v.Float64()
	return ok && s.desc.Condition.Matches(f, s.threshold)
}

// Hub tracks open subscriptions and fans ingested values out to them.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// add validates d and registers a subscriber whose outbox starts with the
// ack, so no event can overtake it.
func (h *Hub) add(d models.SubscriptionDescriptor) (*subscriber, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	threshold, err := d.DataType.ParseValue(d.Value)
	if err != nil {
		return nil, err
	}
	f, _ := threshold.Float64()

	sub := &subscriber{
		id:        uuid.New().String(),
		desc:      d,
		threshold: f,
		out:       make(chan rpc.StreamMessage, outboxSize),
	}
	sub.send(rpc.StreamMessage{Type: rpc.StreamAck})

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; ok {
		return nil, errDuplicateID
	}
	h.subs[sub.id] = sub
	logger.Infof("[Subscription %s] opened for %s", logging.ShortID(sub.id), d.DisplayString())
	return sub, nil
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[id]; ok {
		delete(h.subs, id)
		logger.Infof("[Subscription %s] closed", logging.ShortID(id))
	}
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PvNames returns the distinct PV names with an open subscription.
func (h *Hub) PvNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{})
	var names []string
	for _, sub := range h.subs {
		if _, ok := seen[sub.desc.PvName]; ok {
			continue
		}
		seen[sub.desc.PvName] = struct{}{}
		names = append(names, sub.desc.PvName)
	}
	sort.Strings(names)
	return names
}

// PublishFrame evaluates every subscription against the frame's values and
// queues an event per hit. It returns the number of events queued.
func (h *Hub) PublishFrame(f models.DataFrame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, col := range f.Columns {
		for _, sub := range h.subs {
			if sub.desc.PvName != col.Name {
				continue
			}
			for i, v := range col.Values {
				if i >= len(f.Timestamps) || !sub.matches(v) {
					continue
				}
				value := v
				ev := models.DataEvent{Descriptor: sub.desc, EventTime: f.Timestamps[i], DataValue: &value}
				if sub.send(rpc.StreamMessage{Type: rpc.StreamEvent, Event: &ev}) {
					sent++
				}
			}
		}
	}
	return sent
}

// Close ends every subscription from the server side.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.send(rpc.StreamMessage{Type: rpc.StreamCancelled})
		sub.close()
	}
}
