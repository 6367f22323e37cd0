package post

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/pagination"
	"github.com/blogsphere/core/internal/store"
	"golang.org/x/sync/errgroup"
)

var errPostNotFound = apperr.NotFound("Post not found")

// Visibility selects which posts a listing may return.
type Visibility int

const (
	// VisibilityPublished admits published posts only.
	VisibilityPublished Visibility = iota
	// VisibilityOwn admits published posts and the caller's drafts.
	VisibilityOwn
	// VisibilityAll admits every post.
	VisibilityAll
)

// ResolveVisibility maps the isPublished query flag and the caller onto a
// listing mode. Anonymous callers never see drafts.
func ResolveVisibility(publishedOnly bool, principal *models.Principal) Visibility {
	switch {
	case publishedOnly || principal == nil:
		return VisibilityPublished
	case principal.IsElevated():
		return VisibilityAll
	default:
		return VisibilityOwn
	}
}

// ListQuery holds the list parameters.
type ListQuery struct {
	Page       pagination.Query
	CategoryID string
	Visibility Visibility
	// Principal is the caller, needed for VisibilityOwn.
	Principal *models.Principal
}

// Query serves the read side: list, fetch and search.
type Query struct {
	posts    store.PostStore
	hydrator *Hydrator
	views    *ViewCounter
}

func NewQuery(posts store.PostStore, hydrator *Hydrator, views *ViewCounter) *Query {
	return &Query{posts: posts, hydrator: hydrator, views: views}
}

func (q *Query) List(ctx context.Context, lq ListQuery) (*ListResult, error) {
	filter := store.PostFilter{CategoryID: models.NormalizeID(lq.CategoryID)}
	switch lq.Visibility {
	case VisibilityPublished:
		filter.PublishedOnly = true
	case VisibilityOwn:
		filter.PublishedOnly = true
		if lq.Principal != nil {
			filter.AlsoAuthor = lq.Principal.ID
		}
	}
	return q.page(ctx, filter, lq.Page)
}

// Search matches text literally and case-insensitively against title,
// content and excerpt of published posts.
func (q *Query) Search(ctx context.Context, text string, page pagination.Query) (*ListResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("Search query is required")
	}
	return q.page(ctx, store.PostFilter{Text: text, PublishedOnly: true}, page)
}

func (q *Query) page(ctx context.Context, filter store.PostFilter, page pagination.Query) (*ListResult, error) {
	var (
		total int64
		posts []models.PostModel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = q.posts.CountPosts(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = q.posts.FindPosts(gctx, filter, store.Page{Skip: page.Skip(), Limit: page.Limit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	items, err := q.hydrator.Hydrate(ctx, posts, false)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total}, nil
}

// Get fetches one post by id or slug and counts the view.
func (q *Query) Get(ctx context.Context, key PostKey) (*View, error) {
	post, err := q.find(ctx, key)
	if err != nil {
		return nil, err
	}
	view, err := q.hydrator.HydrateOne(ctx, post)
	if err != nil {
		return nil, err
	}
	if count, ok := q.views.Record(ctx, post.ID); ok {
		view.ViewCount = count
	}
	return view, nil
}

func (q *Query) find(ctx context.Context, key PostKey) (*models.PostModel, error) {
	var (
		post *models.PostModel
		err  error
	)
	if key.Kind == ByID {
		post, err = q.posts.FindPostByID(ctx, key.Value)
	} else {
		post, err = q.posts.FindPostBySlug(ctx, key.Value)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", key, err)
	}
	return post, nil
}
