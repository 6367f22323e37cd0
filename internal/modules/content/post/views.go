package post

import (
	"context"

	"github.com/blogsphere/core/internal/pkg/metrics"
	"github.com/blogsphere/core/internal/store"
	"go.uber.org/zap"
)

// ViewCounter records one view per successful single-post read.
type ViewCounter struct {
	posts store.PostStore
	log   *zap.Logger
}

func NewViewCounter(posts store.PostStore, log *zap.Logger) *ViewCounter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ViewCounter{posts: posts, log: log}
}

// Record increments the counter and returns the new value. A failed write
// is logged and reported as ok=false; the read it belongs to still
// succeeds.
func (v *ViewCounter) Record(ctx context.Context, postID string) (count int64, ok bool) {
	count, err := v.posts.IncrementViewCount(ctx, postID)
	if err != nil {
		metrics.ViewIncrements.WithLabelValues("error").Inc()
		v.log.Warn("increment view count", zap.String("post", postID), zap.Error(err))
		return 0, false
	}
	metrics.ViewIncrements.WithLabelValues("ok").Inc()
	return count, true
}
