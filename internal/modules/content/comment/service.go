// Package comment appends reader comments to posts.
package comment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/modules/content/post"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/store"
)

type CreateCommentDTO struct {
	Content string `json:"content"`
}

type Service struct {
	posts    store.PostStore
	hydrator *post.Hydrator
	purger   post.CachePurger
	now      func() time.Time
}

func NewService(posts store.PostStore, hydrator *post.Hydrator, purger post.CachePurger) *Service {
	return &Service{posts: posts, hydrator: hydrator, purger: purger, now: time.Now}
}

// Append adds a comment by principal to the post with postID and returns
// the post with every comment author resolved. It does not count a view.
func (s *Service) Append(ctx context.Context, principal *models.Principal, postID string, dto *CreateCommentDTO) (*post.View, error) {
	if principal == nil {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}
	content := strings.TrimSpace(dto.Content)
	if content == "" {
		return nil, apperr.Validation("Comment content is required")
	}

	err := s.posts.AppendComment(ctx, postID, models.CommentModel{
		ID:        models.NewID(),
		UserID:    principal.ID,
		Content:   content,
		CreatedAt: s.now(),
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	if s.purger != nil {
		s.purger.Purge(ctx)
	}

	updated, err := s.posts.FindPostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	return s.hydrator.HydrateOne(ctx, updated)
}
