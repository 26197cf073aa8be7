package alert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Deduper suppresses repeat alerts for the same opportunity within a TTL
// window, backed by Redis SETNX so multiple agent instances share the
// window.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduper creates a deduper with the given suppression window.
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// key hashes the fields that identify an opportunity. Prices are included
// so a materially different price on the same selection alerts again.
func (d *Deduper) key(sig models.Signal) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s",
		sig.Kind, sig.EventID, sig.Market, sig.Selection,
		sig.Action, sig.BackPrice.String(), sig.LayPrice.String())
	return "alert:dedup:" + hex.EncodeToString(h.Sum(nil))
}

// FirstSeen returns true when this opportunity has not alerted within the
// window, claiming the slot atomically.
func (d *Deduper) FirstSeen(ctx context.Context, sig models.Signal) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(sig), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check failed: %w", err)
	}
	return ok, nil
}
