package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenIssuer is the slice of the processor API the provider needs.
type TokenIssuer interface {
	CreateUserToken(ctx context.Context) (string, error)
}

// Provider hands out per-user processor credentials. CurrentToken only
// consults the cache; EnsureToken creates a fresh (anonymous-capable)
// processor session on a miss, so callers ask for a credential instead of
// reading ambient state.
type Provider interface {
	CurrentToken(ctx context.Context, uid string) (string, error)
	EnsureToken(ctx context.Context, uid string) (string, error)
}

var ErrNoSession = errors.New("session: no cached token for user")

type RedisProvider struct {
	rdb    *redis.Client
	issuer TokenIssuer
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisProvider(rdb *redis.Client, issuer TokenIssuer, ttl time.Duration, log *zap.Logger) *RedisProvider {
	return &RedisProvider{rdb: rdb, issuer: issuer, ttl: ttl, log: log}
}

func tokenKey(uid string) string { return "cr:usertoken:" + uid }

func (p *RedisProvider) CurrentToken(ctx context.Context, uid string) (string, error) {
	v, err := p.rdb.Get(ctx, tokenKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	return v, nil
}

func (p *RedisProvider) EnsureToken(ctx context.Context, uid string) (string, error) {
	if tok, err := p.CurrentToken(ctx, uid); err == nil {
		return tok, nil
	} else if !errors.Is(err, ErrNoSession) {
		return "", err
	}

	tok, err := p.issuer.CreateUserToken(ctx)
	if err != nil {
		return "", fmt.Errorf("session: issue token: %w", err)
	}
	if err := p.rdb.Set(ctx, tokenKey(uid), tok, p.ttl).Err(); err != nil {
		// Token is still usable for this call; next caller re-issues.
		p.log.Warn("session: cache token failed", zap.String("uid", uid), zap.Error(err))
	}
	return tok, nil
}
