// Package cache keeps read-through copies of repayment schedules in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"
	customError "github.com/segyhp/finance-ledger/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScheduleCache stores schedules by loan. A miss is (nil, false, nil).
type ScheduleCache interface {
	GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, bool, error)
	SetSchedule(ctx context.Context, loanID uuid.UUID, schedule []*domain.RepaymentInstallment) error
	Invalidate(ctx context.Context, loanIDs ...uuid.UUID) error
}

type RedisScheduleCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ScheduleCache = (*RedisScheduleCache)(nil)

func NewRedisScheduleCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisScheduleCache {
	if prefix == "" {
		prefix = "schedule:"
	}
	return &RedisScheduleCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisScheduleCache) key(loanID uuid.UUID) string {
	return fmt.Sprintf("%s%s", c.prefix, loanID)
}

func (c *RedisScheduleCache) GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, bool, error) {
	raw, err := c.client.Get(ctx, c.key(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, customError.WrapCacheError(err)
	}

	var schedule []*domain.RepaymentInstallment
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, false, customError.WrapCacheError(err)
	}
	return schedule, true, nil
}

func (c *RedisScheduleCache) SetSchedule(ctx context.Context, loanID uuid.UUID, schedule []*domain.RepaymentInstallment) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return customError.WrapCacheError(err)
	}
	if err := c.client.Set(ctx, c.key(loanID), raw, c.ttl).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

func (c *RedisScheduleCache) Invalidate(ctx context.Context, loanIDs ...uuid.UUID) error {
	if len(loanIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(loanIDs))
	for _, id := range loanIDs {
		keys = append(keys, c.key(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return customError.WrapCacheError(err)
	}
	return nil
}

// Noop never stores anything
type Noop struct{}

var _ ScheduleCache = Noop{}

func (Noop) GetSchedule(context.Context, uuid.UUID) ([]*domain.RepaymentInstallment, bool, error) {
	return nil, false, nil
}

func (Noop) SetSchedule(context.Context, uuid.UUID, []*domain.RepaymentInstallment) error {
	return nil
}

func (Noop) Invalidate(context.Context, ...uuid.UUID) error {
	return nil
}
