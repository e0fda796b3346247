package data

import (
	"context"
	"sync"
	"time"

	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
)

// MemoryDeliveryLedger is a process-local DeliveryLedger. Entries expire after ttl.
type MemoryDeliveryLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	rec       model.DeliveryRecord
	expiresAt time.Time
}

var _ core.DeliveryLedger = (*MemoryDeliveryLedger)(nil)

// NewMemoryDeliveryLedger creates a ledger. A non-positive ttl keeps entries forever.
func NewMemoryDeliveryLedger(ttl time.Duration, now func() time.Time) *MemoryDeliveryLedger {
	if now == nil {
		now = time.Now
	}
	return &MemoryDeliveryLedger{ttl: ttl, now: now, entries: make(map[string]memoryEntry)}
}

// Delivered reports whether key was recorded and has not expired.
func (l *MemoryDeliveryLedger) Delivered(_ context.Context, key model.DeliveryKey) (bool, error) {
	if !validKey(string(key.InterviewID), key.StartTime.Unix()) {
		return false, ErrKeyRequired
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key.String()]
	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && !l.now().Before(e.expiresAt) {
		delete(l.entries, key.String())
		return false, nil
	}
	return true, nil
}

// Record stores rec. Recording the same key twice keeps the first record.
func (l *MemoryDeliveryLedger) Record(_ context.Context, rec model.DeliveryRecord) error {
	if !validKey(string(rec.Key.InterviewID), rec.Key.StartTime.Unix()) {
		return ErrKeyRequired
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweepLocked(now)
	k := rec.Key.String()
	if e, ok := l.entries[k]; ok && (e.expiresAt.IsZero() || now.Before(e.expiresAt)) {
		return nil
	}
	var exp time.Time
	if l.ttl > 0 {
		exp = now.Add(l.ttl)
	}
	l.entries[k] = memoryEntry{rec: rec, expiresAt: exp}
	return nil
}

// Len returns the number of unexpired entries.
func (l *MemoryDeliveryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
	return len(l.entries)
}

func (l *MemoryDeliveryLedger) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(l.entries, k)
		}
	}
}
