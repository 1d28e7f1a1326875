package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dp-desktop/client/internal/models"
	"github.com/dp-desktop/client/internal/storage"
)

// TickerProviderName is the provider the ticker ingests under.
const TickerProviderName = "simulator-ticker"

// Ticker ingests a random-walk value for every subscribed PV on each tick,
// so open subscriptions see live traffic.
type Ticker struct {
	store      storage.Store
	hub        *Hub
	interval   time.Duration
	rnd        *rand.Rand
	providerID string
}

// NewTicker creates a ticker. A non-positive interval disables Run.
func NewTicker(store storage.Store, hub *Hub, interval time.Duration, seed int64) *Ticker {
	return &Ticker{
		store:    store,
		hub:      hub,
		interval: interval,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

// Run ticks until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	if t.interval <= 0 {
		return
	}
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			if _, err := t.Tick(now); err != nil {
				logger.Warnf("[Ticker] %v", err)
			}
		}
	}
}

// Tick ingests one value per subscribed PV at now and returns the number of
// events it triggered.
func (t *Ticker) Tick(now time.Time) (int, error) {
	names := t.hub.PvNames()
	if len(names) == 0 {
		return 0, nil
	}

	if t.providerID == "" {
		p, _, err := t.store.RegisterProvider(models.Provider{
			Name:        TickerProviderName,
			Description: "Random walk values for subscribed PVs",
			Tags:        []string{"simulated"},
		})
		if err != nil {
			return 0, fmt.Errorf("failed to register ticker provider: %w", err)
		}
		t.providerID = p.ID
	}

	frame := models.DataFrame{
		Name:       "tick",
		Timestamps: []models.Timestamp{models.TimestampOf(now)},
	}
	for _, name := range names {
		base := 0.0
		if last, ok := t.store.Latest(name); ok {
			if f, ok := last.Value.Float64(); ok {
				base = f
			}
		}
		next := base + t.rnd.Float64()*2 - 1
		frame.Columns = append(frame.Columns, models.DataColumn{
			Name:   name,
			Values: []models.DataValue{models.DoubleValue(next)},
		})
	}

	if _, err := t.store.Ingest(models.IngestRequest{
		ProviderID: t.providerID,
		RequestID:  uuid.New().String(),
		Frames:     []models.DataFrame{frame},
	}); err != nil {
		return 0, fmt.Errorf("failed to ingest tick: %w", err)
	}
	return t.hub.PublishFrame(frame), nil
}
