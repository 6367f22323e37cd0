package post

import (
	"context"
	"fmt"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/store"
	"golang.org/x/sync/errgroup"
)

// Hydrator resolves author, category and comment user references into
// their display projections with one batched lookup per kind.
type Hydrator struct {
	users      store.UserStore
	categories store.CategoryStore
}

func NewHydrator(users store.UserStore, categories store.CategoryStore) *Hydrator {
	return &Hydrator{users: users, categories: categories}
}

// Hydrate builds views for posts. Comment users are resolved only when
// withComments is set; otherwise they carry just their id.
func (h *Hydrator) Hydrate(ctx context.Context, posts []models.PostModel, withComments bool) ([]View, error) {
	userIDs := newIDSet()
	categoryIDs := newIDSet()
	for i := range posts {
		userIDs.add(posts[i].AuthorID)
		categoryIDs.add(posts[i].CategoryID)
		if withComments {
			for _, cm := range posts[i].Comments {
				userIDs.add(cm.UserID)
			}
		}
	}

	users := map[string]UserRef{}
	categories := map[string]CategoryRef{}
	g, gctx := errgroup.WithContext(ctx)
	if len(userIDs.list) > 0 {
		g.Go(func() error {
			found, err := h.users.FindUsersByIDs(gctx, userIDs.list)
			if err != nil {
				return fmt.Errorf("load users: %w", err)
			}
			for _, u := range found {
				users[u.ID] = UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			}
			return nil
		})
	}
	if len(categoryIDs.list) > 0 {
		g.Go(func() error {
			found, err := h.categories.FindCategoriesByIDs(gctx, categoryIDs.list)
			if err != nil {
				return fmt.Errorf("load categories: %w", err)
			}
			for _, c := range found {
				categories[c.ID] = CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]View, 0, len(posts))
	for i := range posts {
		views = append(views, buildView(&posts[i], users, categories))
	}
	return views, nil
}

// HydrateOne is Hydrate for a single post with comment users resolved.
func (h *Hydrator) HydrateOne(ctx context.Context, post *models.PostModel) (*View, error) {
	views, err := h.Hydrate(ctx, []models.PostModel{*post}, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func buildView(p *models.PostModel, users map[string]UserRef, categories map[string]CategoryRef) View {
	v := View{
		ID:            p.ID,
		Slug:          p.Slug,
		Title:         p.Title,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		Author:        userRef(users, p.AuthorID),
		Tags:          append([]string{}, p.Tags...),
		IsPublished:   p.IsPublished,
		FeaturedImage: p.FeaturedImage,
		ViewCount:     p.ViewCount,
		Comments:      make([]CommentView, 0, len(p.Comments)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.CategoryID != "" {
		ref, ok := categories[p.CategoryID]
		if !ok {
			ref = CategoryRef{ID: p.CategoryID}
		}
		v.Category = &ref
	}
	for _, cm := range p.Comments {
		v.Comments = append(v.Comments, CommentView{
			ID:        cm.ID,
			User:      userRef(users, cm.UserID),
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		})
	}
	return v
}

func userRef(users map[string]UserRef, id string) UserRef {
	if ref, ok := users[id]; ok {
		return ref
	}
	return UserRef{ID: id}
}

type idSet struct {
	seen map[string]struct{}
	list []string
}

func newIDSet() *idSet {
	return &idSet{seen: map[string]struct{}{}}
}

func (s *idSet) add(id string) {
	if id == "" {
		return
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.list = append(s.list, id)
}
