package popup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// No popup at all within this window of any previous showing.
	anyOfferCooldown = 2 * time.Hour
	// The same offer stays hidden for this window after its own showing.
	sameOfferCooldown = 12 * time.Hour
)

// ErrNotFound is returned by KV implementations when a key has no value.
var ErrNotFound = errors.New("popup: key not found")

// KV is the durable key/value port behind the frequency cap. Values survive
// page sessions; multiple concurrent sessions may race on a key, which this
// design accepts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CapRecord is the persisted trace of the last popup shown to a visitor.
type CapRecord struct {
	ShownAt time.Time `json:"shownAt"`
	OfferID string    `json:"offerId"`
}

// Permits reports whether the given offer may be shown at now. A nil record
// (nothing shown yet) always permits.
func (r *CapRecord) Permits(offerID string, now time.Time) bool {
	if r == nil {
		return true
	}

	since := now.Sub(r.ShownAt)
	if since < anyOfferCooldown {
		return false
	}
	if r.OfferID == offerID && since < sameOfferCooldown {
		return false
	}
	return true
}

// CapStore reads and writes one visitor's CapRecord through the KV port.
type CapStore struct {
	kv  KV
	key string
}

func NewCapStore(kv KV, key string) *CapStore {
	return &CapStore{kv: kv, key: key}
}

// Load returns the visitor's record, or nil when none has been written yet.
// A record that fails to parse is treated as absent rather than poisoning
// every future decision.
func (s *CapStore) Load(ctx context.Context) (*CapRecord, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cap record: %w", err)
	}

	record := new(CapRecord)
	if err := json.Unmarshal([]byte(raw), record); err != nil {
		return nil, nil
	}
	return record, nil
}

func (s *CapStore) Save(ctx context.Context, record CapRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cap record: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save cap record: %w", err)
	}
	return nil
}
