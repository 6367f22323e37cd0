// Package store defines the persistence contract for posts, categories and
// users. Implementations live in the memory, mongo and gormstore packages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/blogsphere/core/internal/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist,
	// including identifiers that are not valid ObjectIDs.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a unique field already exists.
	ErrDuplicate = errors.New("store: duplicate key")
)

// PostFilter selects posts. Zero values match everything.
type PostFilter struct {
	CategoryID string
	// PublishedOnly restricts results to published posts.
	PublishedOnly bool
	// AlsoAuthor, together with PublishedOnly, additionally admits the
	// unpublished posts of this author.
	AlsoAuthor string
	// Text matches a case-insensitive literal substring of title, content
	// or excerpt.
	Text string
}

// Page is a skip/limit window over results sorted by createdAt descending.
type Page struct {
	Skip  int
	Limit int
}

// PostPatch lists the mutable post fields. Nil fields are left untouched.
type PostPatch struct {
	Title         *string
	Content       *string
	Excerpt       *string
	CategoryID    *string
	Tags          *[]string
	IsPublished   *bool
	FeaturedImage *string
	UpdatedAt     time.Time
}

// PostStore persists posts with their embedded comments.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.PostModel) error
	FindPostByID(ctx context.Context, id string) (*models.PostModel, error)
	// FindPostBySlug returns the newest post carrying slug.
	FindPostBySlug(ctx context.Context, slug string) (*models.PostModel, error)
	FindPosts(ctx context.Context, filter PostFilter, page Page) ([]models.PostModel, error)
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (*models.PostModel, error)
	DeletePost(ctx context.Context, id string) error
	// IncrementViewCount atomically adds one to the view counter and
	// returns the new value.
	IncrementViewCount(ctx context.Context, id string) (int64, error)
	// AppendComment atomically appends to the comment sequence.
	AppendComment(ctx context.Context, postID string, comment models.CommentModel) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.CategoryModel) error
	FindCategoryByID(ctx context.Context, id string) (*models.CategoryModel, error)
	FindCategoriesByIDs(ctx context.Context, ids []string) ([]models.CategoryModel, error)
	ListCategories(ctx context.Context) ([]models.CategoryModel, error)
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.UserModel) error
	FindUserByID(ctx context.Context, id string) (*models.UserModel, error)
	FindUserByEmail(ctx context.Context, email string) (*models.UserModel, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]models.UserModel, error)
}

// Store is a complete backend.
type Store interface {
	PostStore
	CategoryStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
