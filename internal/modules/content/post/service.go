package post

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/slug"
	"github.com/blogsphere/core/internal/store"
)

var (
	errCategoryNotFound = apperr.NotFound("Category not found")
	errNoPrincipal      = apperr.Unauthorized("Not authorized, no token")
)

// CategoryChecker reports whether a category id refers to a stored
// category.
type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ImageStore persists an uploaded file and returns its public handle.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// CachePurger drops cached read responses after a write.
type CachePurger interface {
	Purge(ctx context.Context)
}

// Service is the write side for posts.
type Service struct {
	posts      store.PostStore
	categories CategoryChecker
	images     ImageStore
	hydrator   *Hydrator
	purger     CachePurger
	now        func() time.Time
}

func NewService(posts store.PostStore, categories CategoryChecker, images ImageStore, hydrator *Hydrator, purger CachePurger) *Service {
	return &Service{
		posts:      posts,
		categories: categories,
		images:     images,
		hydrator:   hydrator,
		purger:     purger,
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, principal *models.Principal, in *CreateInput) (*View, error) {
	if principal == nil {
		return nil, errNoPrincipal
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.Category = models.NormalizeID(in.Category)
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	post := &models.PostModel{
		Base:        models.Base{ID: models.NewID()},
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     in.Excerpt,
		CategoryID:  in.Category,
		AuthorID:    principal.ID,
		Tags:        models.StringArray(append([]string{}, in.Tags...)),
		IsPublished: in.IsPublished,
	}
	post.Slug = slug.Generate(in.Title)
	if post.Slug == "" {
		post.Slug = post.ID
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Uploads happen after the insert: no stored file without its post.
	if in.Image != nil {
		if err := s.attachImage(ctx, post, in.Image); err != nil {
			return nil, err
		}
	}
	s.purge(ctx)

	created, err := s.posts.FindPostByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	return s.hydrator.HydrateOne(ctx, created)
}

// attachImage saves file and records its handle on post. The post is
// removed again when the file cannot be stored.
func (s *Service) attachImage(ctx context.Context, post *models.PostModel, file *multipart.FileHeader) error {
	image, err := s.saveImage(ctx, file)
	if err == nil {
		_, err = s.posts.UpdatePost(ctx, post.ID, store.PostPatch{FeaturedImage: &image, UpdatedAt: post.UpdatedAt})
		if err != nil {
			err = fmt.Errorf("attach image: %w", err)
		}
	}
	if err != nil {
		if delErr := s.posts.DeletePost(ctx, post.ID); delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
			return errors.Join(err, fmt.Errorf("discard post: %w", delErr))
		}
		return err
	}
	return nil
}

// Update applies the allow-listed fields of in to the post with id.
func (s *Service) Update(ctx context.Context, principal *models.Principal, id string, in *UpdateInput) (*View, error) {
	if principal == nil {
		return nil, errNoPrincipal
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(principal, current) {
		return nil, apperr.Forbidden("Not authorized to update this post")
	}
	if in.Category != nil {
		category := models.NormalizeID(*in.Category)
		in.Category = &category
		if err := s.checkCategory(ctx, category); err != nil {
			return nil, err
		}
	}

	patch := store.PostPatch{
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     in.Excerpt,
		CategoryID:  in.Category,
		Tags:        in.Tags,
		IsPublished: in.IsPublished,
		UpdatedAt:   s.now(),
	}
	if in.Image != nil {
		image, err := s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		patch.FeaturedImage = &image
	}

	updated, err := s.posts.UpdatePost(ctx, current.ID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	s.purge(ctx)
	return s.hydrator.HydrateOne(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, principal *models.Principal, id string) error {
	if principal == nil {
		return errNoPrincipal
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(principal, current) {
		return apperr.Forbidden("Not authorized to delete this post")
	}
	err = s.posts.DeletePost(ctx, current.ID)
	if errors.Is(err, store.ErrNotFound) {
		return errPostNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.purge(ctx)
	return nil
}

// canModify is the ownership rule: the author or an admin.
func canModify(principal *models.Principal, post *models.PostModel) bool {
	return principal.Owns(post.AuthorID) || principal.IsElevated()
}

func (s *Service) load(ctx context.Context, id string) (*models.PostModel, error) {
	post, err := s.posts.FindPostByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	return post, nil
}

func (s *Service) checkCategory(ctx context.Context, id string) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return errCategoryNotFound
	}
	return nil
}

func (s *Service) saveImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}
	if s.images == nil {
		return "", apperr.Validation("File uploads are disabled")
	}
	return s.images.Save(ctx, file)
}

func (s *Service) purge(ctx context.Context) {
	if s.purger != nil {
		s.purger.Purge(ctx)
	}
}
