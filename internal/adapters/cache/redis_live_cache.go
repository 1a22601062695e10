package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/ports"
)

const (
	latestFixTTL = 10 * time.Minute
	alertLogTTL  = 4 * time.Hour
	alertLogCap  = 20
)

// RedisLiveCache holds the per-session live view in Redis: the latest fix
// under one key, recent alerts in a capped list. Everything expires on its
// own; the append-only fix log in SQL remains the source of truth.
type RedisLiveCache struct {
	Client *redis.Client
}

func NewRedisLiveCache(client *redis.Client) *RedisLiveCache {
	return &RedisLiveCache{Client: client}
}

func fixKey(sessionID int64) string   { return fmt.Sprintf("live:session:%d:fix", sessionID) }
func alertKey(sessionID int64) string { return fmt.Sprintf("live:session:%d:alerts", sessionID) }

func (c *RedisLiveCache) SetLatestFix(ctx context.Context, fix domain.LocationFix) error {
	if c.Client == nil {
		return errors.New("live cache: client is nil")
	}

	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("cache fix: marshal: %w", err)
	}

	if err := c.Client.Set(ctx, fixKey(fix.SessionID), payload, latestFixTTL).Err(); err != nil {
		return fmt.Errorf("cache fix: set: %w", err)
	}
	return nil
}

func (c *RedisLiveCache) LatestFix(ctx context.Context, sessionID int64) (*domain.LocationFix, error) {
	if c.Client == nil {
		return nil, errors.New("live cache: client is nil")
	}

	payload, err := c.Client.Get(ctx, fixKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cached fix: get: %w", err)
	}

	var fix domain.LocationFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		return nil, fmt.Errorf("cached fix: unmarshal: %w", err)
	}
	return &fix, nil
}

func (c *RedisLiveCache) PushAlert(ctx context.Context, alert domain.ProximityAlert) error {
	if c.Client == nil {
		return errors.New("live cache: client is nil")
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("cache alert: marshal: %w", err)
	}

	key := alertKey(alert.SessionID)
	pipe := c.Client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, alertLogCap-1)
	pipe.Expire(ctx, key, alertLogTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache alert: push: %w", err)
	}
	return nil
}

// RecentAlerts returns the capped alert log, newest first.
func (c *RedisLiveCache) RecentAlerts(ctx context.Context, sessionID int64) ([]domain.ProximityAlert, error) {
	if c.Client == nil {
		return nil, errors.New("live cache: client is nil")
	}

	payloads, err := c.Client.LRange(ctx, alertKey(sessionID), 0, alertLogCap-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent alerts: lrange: %w", err)
	}

	alerts := make([]domain.ProximityAlert, 0, len(payloads))
	for _, p := range payloads {
		var alert domain.ProximityAlert
		if err := json.Unmarshal([]byte(p), &alert); err != nil {
			return nil, fmt.Errorf("recent alerts: unmarshal: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

var _ ports.LiveCache = (*RedisLiveCache)(nil)
