package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 200
)

// Deduper records idempotency keys so a replayed create is not executed twice.
type Deduper interface {
	Add(ctx context.Context, owner, key string) (bool, error)
	Remove(ctx context.Context, owner, key string) error
}

// RedisDeduper stores idempotency keys in Redis so all instances share them.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(owner, key string) string {
	return fmt.Sprintf("idem:%s:%s", owner, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, owner, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(owner, key), 1, r.ttl).Result()
}

// Remove deletes a recorded key so the caller may retry a failed request.
func (r *RedisDeduper) Remove(ctx context.Context, owner, key string) error {
	return r.client.Del(ctx, r.key(owner, key)).Err()
}

// idempotency rejects a replayed Idempotency-Key with 409. Keys are scoped to
// the caller and the route. The key is released again when the request
// fails, and the check is skipped when the deduper is unavailable.
func idempotency(d Deduper, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if d == nil {
			return next
		}
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return domain.Invalid(headerIdempotencyKey, fmt.Sprintf("must be at most %d characters", maxIdempotencyKeyLen))
			}
			owner := "anonymous"
			if claims := claimsFrom(c); claims != nil {
				owner = strconv.FormatInt(claims.UserID, 10)
			}
			scoped := c.Path() + "|" + key
			ctx := c.Request().Context()

			added, err := d.Add(ctx, owner, scoped)
			if err != nil {
				logger.WithError(err).WithField("route", c.Path()).Warn("idempotency check skipped")
				return next(c)
			}
			if !added {
				metricsFrom(c).SetErrorStage("idempotency")
				return echo.NewHTTPError(http.StatusConflict, "duplicate request")
			}

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if rerr := d.Remove(context.WithoutCancel(ctx), owner, scoped); rerr != nil {
					logger.WithError(rerr).WithField("route", c.Path()).Warn("release idempotency key")
				}
			}
			return err
		}
	}
}
