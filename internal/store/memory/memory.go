// Package memory is a process-local store used for development and tests.
// A single mutex serializes every write, which makes increments and comment
// appends atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	posts      map[string]*models.PostModel
	categories map[string]*models.CategoryModel
	users      map[string]*models.UserModel
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		posts:      make(map[string]*models.PostModel),
		categories: make(map[string]*models.CategoryModel),
		users:      make(map[string]*models.UserModel),
		now:        time.Now,
	}
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) stamp(b *models.Base) {
	if b.ID == "" {
		b.ID = models.NewID()
	}
	now := s.now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}

// posts

func (s *Store) CreatePost(_ context.Context, post *models.PostModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stamp(&post.Base)
	if _, ok := s.posts[post.ID]; ok {
		return store.ErrDuplicate
	}
	if post.Tags == nil {
		post.Tags = models.StringArray{}
	}
	if post.Comments == nil {
		post.Comments = []models.CommentModel{}
	}
	cp := post.Clone()
	s.posts[post.ID] = &cp
	return nil
}

func (s *Store) FindPostByID(_ context.Context, id string) (*models.PostModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

func (s *Store) FindPostBySlug(_ context.Context, slug string) (*models.PostModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.PostModel
	for _, p := range s.posts {
		if p.Slug != slug {
			continue
		}
		if found == nil || newerFirst(p, found) {
			found = p
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	cp := found.Clone()
	return &cp, nil
}

func (s *Store) FindPosts(_ context.Context, filter store.PostFilter, page store.Page) ([]models.PostModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(filter)
	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[i], matched[j]) })

	out := []models.PostModel{}
	if page.Skip < 0 || page.Skip >= len(matched) {
		return out, nil
	}
	matched = matched[page.Skip:]
	if page.Limit > 0 && len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	for _, p := range matched {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *Store) CountPosts(_ context.Context, filter store.PostFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(filter))), nil
}

func (s *Store) match(filter store.PostFilter) []*models.PostModel {
	needle := strings.ToLower(filter.Text)
	out := make([]*models.PostModel, 0, len(s.posts))
	for _, p := range s.posts {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.PublishedOnly && !p.IsPublished {
			if filter.AlsoAuthor == "" || p.AuthorID != filter.AlsoAuthor {
				continue
			}
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) &&
			!strings.Contains(strings.ToLower(p.Excerpt), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func newerFirst(a, b *models.PostModel) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (s *Store) UpdatePost(_ context.Context, id string, patch store.PostPatch) (*models.PostModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.Tags != nil {
		p.Tags = append(models.StringArray{}, (*patch.Tags)...)
	}
	if patch.IsPublished != nil {
		p.IsPublished = *patch.IsPublished
	}
	if patch.FeaturedImage != nil {
		p.FeaturedImage = *patch.FeaturedImage
	}
	p.UpdatedAt = patch.UpdatedAt
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	cp := p.Clone()
	return &cp, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) IncrementViewCount(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	p.ViewCount++
	return p.ViewCount, nil
}

func (s *Store) AppendComment(_ context.Context, postID string, comment models.CommentModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return store.ErrNotFound
	}
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}
	comment.PostID = postID
	p.Comments = append(p.Comments, comment)
	p.UpdatedAt = comment.CreatedAt
	return nil
}

// categories

func (s *Store) CreateCategory(_ context.Context, category *models.CategoryModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name {
			return store.ErrDuplicate
		}
	}
	s.stamp(&category.Base)
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *Store) FindCategoryByID(_ context.Context, id string) (*models.CategoryModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) FindCategoriesByIDs(_ context.Context, ids []string) ([]models.CategoryModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.CategoryModel{}
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) ListCategories(context.Context) ([]models.CategoryModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CategoryModel, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// users

func (s *Store) CreateUser(_ context.Context, user *models.UserModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	s.stamp(&user.Base)
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*models.UserModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.UserModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindUsersByIDs(_ context.Context, ids []string) ([]models.UserModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.UserModel{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}
