// Package dedup suppresses near-simultaneous duplicate report submissions.
// The fingerprint is content-derived, not session-derived: two users
// submitting identical text and coordinates inside the window collide.
package dedup

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultWindow is how long a fingerprint blocks duplicates.
const DefaultWindow = 10 * time.Second

const keyPrefix = "dedup:report:"

// Fingerprint derives the duplicate-detection key from the submission
// content. The description is hashed raw (no whitespace normalization) and
// coordinates are rounded to 4 decimal places (~11m).
func Fingerprint(userID, description string, lat, lng float64) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%.4f|%.4f", userID, description, lat, lng)
	return hex.EncodeToString(h.Sum(nil))
}

// Guard is a TTL fingerprint set backed by Redis. SET NX makes the
// check-then-insert atomic across concurrent submissions.
type Guard struct {
	rdb    *redis.Client
	window time.Duration
	logger *zap.Logger
}

func NewGuard(rdb *redis.Client, window time.Duration, logger *zap.Logger) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{rdb: rdb, window: window, logger: logger}
}

// ShouldAccept records the fingerprint and reports whether this submission is
// the first inside the window. A Redis failure fails open with a warning:
// losing dedup for a moment beats refusing emergency reports.
func (g *Guard) ShouldAccept(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, keyPrefix+fingerprint, 1, g.window).Result()
	if err != nil {
		g.logger.Warn("dedup check failed, accepting submission",
			zap.String("fingerprint", fingerprint), zap.Error(err))
		return true, nil
	}
	return ok, nil
}
