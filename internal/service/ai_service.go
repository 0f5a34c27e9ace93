package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/devvibe-backend/internal/ai"
	"github.com/iliyamo/devvibe-backend/internal/apperr"
	"github.com/iliyamo/devvibe-backend/internal/config"
	"github.com/iliyamo/devvibe-backend/internal/observability"
)

// Public messages.
const (
	MsgMissingQuestion = "Missing 'question'"
	MsgAIKeyMissing    = "OPENAI_API_KEY not configured"
)

// AIService forwards questions to the configured completer.  A nil completer
// means the API key is not configured.
type AIService struct {
	completer ai.Completer
	rdb       *redis.Client
	cache     config.AnswerCacheConfig
	metrics   *observability.Metrics
	log       *slog.Logger
}

// NewAIService builds the proxy.  rdb may be nil; the answer cache is used
// only when it is non-nil and enabled in cache.
func NewAIService(completer ai.Completer, rdb *redis.Client, cache config.AnswerCacheConfig, metrics *observability.Metrics, log *slog.Logger) *AIService {
	return &AIService{completer: completer, rdb: rdb, cache: cache, metrics: metrics, log: log}
}

// Ask returns the completion for question.
func (s *AIService) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", apperr.Validation(MsgMissingQuestion)
	}
	if s.completer == nil {
		s.metrics.AI("not_configured")
		return "", apperr.Config(MsgAIKeyMissing)
	}

	key := s.cacheKey(question)
	if answer, ok := s.cached(ctx, key); ok {
		s.metrics.AI("cache_hit")
		return answer, nil
	}

	answer, err := s.completer.Complete(ctx, question)
	if err != nil {
		s.metrics.AI("upstream_error")
		return "", apperr.Upstream(err)
	}
	s.metrics.AI("success")
	s.store(ctx, key, answer)
	return answer, nil
}

func (s *AIService) cacheEnabled() bool {
	return s.rdb != nil && s.cache.Enabled
}

func (s *AIService) cacheKey(question string) string {
	sum := sha1.Sum([]byte(s.completer.Model() + "\n" + question))
	return s.cache.Prefix + ":" + hex.EncodeToString(sum[:])
}

// cached never fails: Redis errors are logged and treated as a miss.
func (s *AIService) cached(ctx context.Context, key string) (string, bool) {
	if !s.cacheEnabled() {
		return "", false
	}
	answer, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "answer cache read failed", "error", err)
		}
		return "", false
	}
	return answer, true
}

func (s *AIService) store(ctx context.Context, key, answer string) {
	if !s.cacheEnabled() || answer == "" {
		return
	}
	if err := s.rdb.Set(ctx, key, answer, s.cache.TTL).Err(); err != nil {
		s.log.WarnContext(ctx, "answer cache write failed", "error", err)
	}
}
