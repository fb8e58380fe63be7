package memory

import (
	"context"
	"sync"
	"time"
)

// ViewDeduper es la versión en proceso del dedup de vistas (Redis en producción).
type ViewDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewViewDeduper() *ViewDeduper {
	return &ViewDeduper{seen: make(map[string]time.Time), now: time.Now}
}

func (d *ViewDeduper) FirstView(ctx context.Context, docID, visitorKey string, window time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	key := docID + "|" + visitorKey
	if until, ok := d.seen[key]; ok && now.Before(until) {
		return false, nil
	}
	d.seen[key] = now.Add(window)

	// purga perezosa para no crecer sin límite
	if len(d.seen) > 10000 {
		for k, until := range d.seen {
			if !now.Before(until) {
				delete(d.seen, k)
			}
		}
	}
	return true, nil
}
