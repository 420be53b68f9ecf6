package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"likeboard/app/log"
	"likeboard/app/metrics"
	"likeboard/app/models"
	"likeboard/app/repositories"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a toggle that lost a transaction conflict
// is attempted again.
type RetryPolicy struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy matches the default configuration.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  50,
		BaseBackoff: 2 * time.Millisecond,
		MaxBackoff:  100 * time.Millisecond,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseBackoff)
	b = retry.WithJitter(p.BaseBackoff, b)
	if p.MaxBackoff > 0 {
		b = retry.WithCappedDuration(p.MaxBackoff, b)
	}
	return retry.WithMaxRetries(p.MaxRetries, b)
}

// LikeService flips likes while keeping each post's counter equal to its
// likes. The check and the write happen in one storage transaction; this
// service only decides what to do when that transaction loses a race.
type LikeService struct {
	posts  repositories.PostRepository
	likes  repositories.LikeRepository
	policy RetryPolicy
	logger zerolog.Logger
}

// NewLikeService creates a new LikeService
func NewLikeService(posts repositories.PostRepository, likes repositories.LikeRepository, policy RetryPolicy) *LikeService {
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = DefaultRetryPolicy().BaseBackoff
	}
	return &LikeService{
		posts:  posts,
		likes:  likes,
		policy: policy,
		logger: log.WithComponent("likes"),
	}
}

// ToggleLike likes postID for callerID, or removes the like if there is one.
func (s *LikeService) ToggleLike(ctx context.Context, callerID, postID int) (*models.LikeToggle, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, s.fail(callerID, postID, err)
	}
	if post.IsOwnedBy(callerID) {
		return nil, s.fail(callerID, postID, repositories.ErrSelfLike)
	}

	var result *models.LikeToggle
	conflicts := 0
	err = retry.Do(ctx, s.policy.backoff(), func(ctx context.Context) error {
		res, err := s.likes.Toggle(ctx, callerID, postID)
		if errors.Is(err, repositories.ErrTxnConflict) {
			conflicts++
			metrics.LikeToggleRetries.Inc()
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.fail(callerID, postID, err)
	}

	outcome := "unliked"
	if result.Liked {
		outcome = "liked"
	}
	metrics.LikeTogglesTotal.WithLabelValues(outcome).Inc()
	s.logger.Debug().
		Int("user_id", callerID).
		Int("post_id", postID).
		Bool("liked", result.Liked).
		Int("like_count", result.LikeCount).
		Int("conflicts", conflicts).
		Msg("like toggled")
	return result, nil
}

// fail maps a storage error to the service error and records the outcome.
func (s *LikeService) fail(callerID, postID int, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		metrics.LikeTogglesTotal.WithLabelValues("not_found").Inc()
		return ErrPostNotFound
	case errors.Is(err, repositories.ErrSelfLike):
		metrics.LikeTogglesTotal.WithLabelValues("self_like").Inc()
		return fmt.Errorf("post %d: %w", postID, ErrSelfLike)
	}

	metrics.LikeTogglesTotal.WithLabelValues("failed").Inc()
	s.logger.Error().
		Err(err).
		Int("user_id", callerID).
		Int("post_id", postID).
		Msg("like toggle failed")
	return fmt.Errorf("%w: %v", ErrToggleFailed, err)
}
