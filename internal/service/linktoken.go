package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/roastedworld/roasted/internal/domain"
)

const linkTokenTTL = 10 * time.Minute

// TokenStore holds single-use token state. SetOnce refuses to overwrite an
// existing key; Take returns and atomically deletes, so a token redeems at
// most once.
type TokenStore interface {
	SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Take(ctx context.Context, key string) (string, error)
}

// RedisTokenStore backs TokenStore with redis SETNX/GETDEL.
type RedisTokenStore struct {
	rdb *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

func (s *RedisTokenStore) SetOnce(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *RedisTokenStore) Take(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", domain.NotFoundError{Resource: "link token"}
	}
	return value, err
}

// LinkTokenService issues single-use continuation tokens for the external
// identity link flow. The external provider's redirect carries the token
// back; redeeming it proves the completion belongs to the wallet that
// started the flow.
type LinkTokenService struct {
	store  TokenStore
	secret []byte
}

func NewLinkTokenService(store TokenStore, secret string) *LinkTokenService {
	return &LinkTokenService{store: store, secret: []byte(secret)}
}

// Issue creates a token bound to the given wallet, valid once within the TTL.
func (s *LinkTokenService) Issue(ctx context.Context, walletAddress string) (string, error) {
	nonce := uuid.NewString()
	token := nonce + "." + s.sign(nonce)

	ok, err := s.store.SetOnce(ctx, "linktoken:"+nonce, walletAddress, linkTokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "failed to store link token")
	}
	if !ok {
		return "", errors.New("link token nonce collision")
	}
	return token, nil
}

// Redeem consumes a token and returns the wallet it was issued for. A token
// with a bad signature never touches the store; a valid token redeems
// exactly once.
func (s *LinkTokenService) Redeem(ctx context.Context, token string) (string, error) {
	nonce, mac, found := strings.Cut(token, ".")
	if !found {
		return "", domain.ValidationError{Field: "token", Reason: "malformed link token"}
	}
	if !hmac.Equal([]byte(mac), []byte(s.sign(nonce))) {
		return "", domain.ValidationError{Field: "token", Reason: "invalid link token signature"}
	}

	wallet, err := s.store.Take(ctx, "linktoken:"+nonce)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ValidationError{Field: "token", Reason: "link token expired or already used"}
		}
		return "", err
	}
	return wallet, nil
}

func (s *LinkTokenService) sign(nonce string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(nonce))
	return hex.EncodeToString(h.Sum(nil))
}
