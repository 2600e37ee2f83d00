package warmer

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// runTracker decides which replica warms a given schedule slot
type runTracker interface {
	// Claim reports whether the caller owns the slot starting at slot
	Claim(ctx context.Context, slot time.Time, ttl time.Duration) (bool, error)
}

// localTracker is used without Redis; a single process owns every slot
type localTracker struct{}

func (localTracker) Claim(context.Context, time.Time, time.Duration) (bool, error) {
	return true, nil
}

type redisRunTracker struct {
	log    logrus.FieldLogger
	redis  *redis.Client
	prefix string
}

// newRunTracker creates a Redis-backed tracker shared by every replica
func newRunTracker(log logrus.FieldLogger, redisClient *redis.Client, prefix string) runTracker {
	return &redisRunTracker{
		log:    log.WithField("component", "warmer_tracker"),
		redis:  redisClient,
		prefix: prefix,
	}
}

func (r *redisRunTracker) key(slot time.Time) string {
	// Full key pattern: {prefix}:warmer:slot:{unix seconds}
	return r.prefix + ":warmer:slot:" + strconv.FormatInt(slot.Unix(), 10)
}

func (r *redisRunTracker) Claim(ctx context.Context, slot time.Time, ttl time.Duration) (bool, error) {
	ok, err := r.redis.SetNX(ctx, r.key(slot), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim warmer slot %s: %w", slot.Format(time.RFC3339), err)
	}

	if !ok {
		r.log.WithField("slot", slot).Debug("Warmer slot already claimed by another replica")
	}

	return ok, nil
}

// Verify interface compliance at compile time
var (
	_ runTracker = localTracker{}
	_ runTracker = (*redisRunTracker)(nil)
)
