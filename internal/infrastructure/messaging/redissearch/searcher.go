// Package redissearch implements the uniqueness lookup against the external
// user-search service as a request/reply exchange over Redis lists.
//
// The request carries the email plus a per-request reply key; the reply is
// either a JSON user document ("exists") or an empty/null payload ("not
// found"). A reply that never arrives within the bound is a timeout outcome,
// never folded into "not found".
package redissearch

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/usercore/provisioning-api/internal/api/metrics"
	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/ports"
)

const (
	replyKeyPrefix = "user-search:reply:"
	defaultTimeout = 5 * time.Second
)

// Config controls the logical channel and the reply wait bound.
type Config struct {
	RequestQueue string
	Timeout      time.Duration
}

// Searcher is a UserSearcher over a shared, process-lifetime Redis client.
// Concurrent lookups for the same email are independent; there is no
// request coalescing.
type Searcher struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
	log     zerolog.Logger
}

func NewSearcher(client *redis.Client, cfg Config, log zerolog.Logger) *Searcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Searcher{client: client, queue: cfg.RequestQueue, timeout: timeout, log: log}
}

type searchRequest struct {
	ID      string `json:"id"`
	ReplyTo string `json:"reply_to"`
	Email   string `json:"email"`
}

// FindByEmail publishes a lookup request and blocks on the reply key for at
// most the configured bound. It returns (nil, nil) only for an explicit
// empty reply; an absent reply is domain.ErrSearchTimeout. The in-flight
// request is not cancelled on timeout — the reply key is best-effort
// removed and any late reply expires with it.
func (s *Searcher) FindByEmail(ctx context.Context, email string) (*ports.SearchHit, error) {
	id := correlationID()
	replyTo := replyKeyPrefix + id

	payload, err := json.Marshal(searchRequest{ID: id, ReplyTo: replyTo, Email: email})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	start := time.Now()
	if err := s.client.LPush(ctx, s.queue, payload).Err(); err != nil {
		metrics.SearchRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("publish search request: %w", err)
	}

	res, err := s.client.BRPop(ctx, s.timeout, replyTo).Result()
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, redis.Nil), errors.Is(err, context.DeadlineExceeded):
		metrics.SearchRequestDuration.WithLabelValues("timeout").Observe(elapsed.Seconds())
		metrics.SearchTimeoutsTotal.Inc()
		s.log.Warn().Str("email", email).Str("correlation_id", id).Dur("waited", elapsed).Msg("user-search reply deadline exceeded")
		s.discardReplyKey(replyTo)
		return nil, domain.ErrSearchTimeout
	case err != nil:
		metrics.SearchRequestDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return nil, fmt.Errorf("await search reply: %w", err)
	}

	// BRPop returns [key, value].
	hit, err := decodeReply([]byte(res[1]))
	if err != nil {
		metrics.SearchRequestDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return nil, err
	}

	outcome := "miss"
	if hit != nil {
		outcome = "hit"
	}
	metrics.SearchRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	return hit, nil
}

// decodeReply maps the reply payload to an outcome: empty or null means the
// email is unregistered, anything else must parse as an existing user.
func decodeReply(raw []byte) (*ports.SearchHit, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, nil
	}

	var hit ports.SearchHit
	if err := json.Unmarshal(trimmed, &hit); err != nil {
		return nil, fmt.Errorf("decode search reply: %w", err)
	}
	if hit.ID == "" && hit.Email == "" {
		return nil, nil
	}
	return &hit, nil
}

// discardReplyKey deletes an abandoned reply key so late replies don't
// accumulate. Best effort, on a fresh short-lived context because the
// request context may already be done.
func (s *Searcher) discardReplyKey(replyTo string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.client.Del(ctx, replyTo).Err(); err != nil {
		s.log.Debug().Err(err).Str("reply_key", replyTo).Msg("failed to discard reply key")
	}
}

// correlationID returns a random 16-hex-char id for pairing replies with
// requests.
func correlationID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
