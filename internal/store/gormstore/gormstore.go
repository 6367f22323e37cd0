// Package gormstore implements the store contract on MySQL through GORM.
// Comments live in their own table keyed by post id.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/store"
	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var mysqlErr *mysqldrv.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, mysqlErr.Message)
	}
	return err
}

func withComments(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

// posts

func (s *Store) CreatePost(ctx context.Context, post *models.PostModel) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = s.now()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	if post.Tags == nil {
		post.Tags = models.StringArray{}
	}
	// Comments are only ever appended through AppendComment.
	if err := s.db.WithContext(ctx).Omit("Comments").Create(post).Error; err != nil {
		return translate(err)
	}
	if post.Comments == nil {
		post.Comments = []models.CommentModel{}
	}
	return nil
}

func (s *Store) FindPostByID(ctx context.Context, id string) (*models.PostModel, error) {
	var post models.PostModel
	if err := withComments(s.db.WithContext(ctx)).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return normalized(&post), nil
}

func (s *Store) FindPostBySlug(ctx context.Context, slug string) (*models.PostModel, error) {
	var post models.PostModel
	err := withComments(s.db.WithContext(ctx)).
		Where("slug = ?", slug).
		Order("created_at DESC, id DESC").
		First(&post).Error
	if err != nil {
		return nil, translate(err)
	}
	return normalized(&post), nil
}

func (s *Store) FindPosts(ctx context.Context, filter store.PostFilter, page store.Page) ([]models.PostModel, error) {
	if page.Skip < 0 {
		return []models.PostModel{}, nil
	}
	tx := applyFilter(withComments(s.db.WithContext(ctx)).Model(&models.PostModel{}), filter).
		Order("created_at DESC, id DESC").
		Offset(page.Skip)
	if page.Limit > 0 {
		tx = tx.Limit(page.Limit)
	}
	var posts []models.PostModel
	if err := tx.Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		normalized(&posts[i])
	}
	if posts == nil {
		posts = []models.PostModel{}
	}
	return posts, nil
}

func (s *Store) CountPosts(ctx context.Context, filter store.PostFilter) (int64, error) {
	var total int64
	err := applyFilter(s.db.WithContext(ctx).Model(&models.PostModel{}), filter).Count(&total).Error
	return total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyFilter(tx *gorm.DB, f store.PostFilter) *gorm.DB {
	if f.CategoryID != "" {
		tx = tx.Where("category_id = ?", f.CategoryID)
	}
	if f.PublishedOnly {
		if f.AlsoAuthor != "" {
			tx = tx.Where("(is_published = ? OR author_id = ?)", true, f.AlsoAuthor)
		} else {
			tx = tx.Where("is_published = ?", true)
		}
	}
	if f.Text != "" {
		// The default MySQL collations compare case-insensitively; LOWER keeps
		// the match stable under binary collations too.
		like := "%" + likeEscaper.Replace(strings.ToLower(f.Text)) + "%"
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(excerpt) LIKE ?)", like, like, like)
	}
	return tx
}

func normalized(p *models.PostModel) *models.PostModel {
	if p.Tags == nil {
		p.Tags = models.StringArray{}
	}
	if p.Comments == nil {
		p.Comments = []models.CommentModel{}
	}
	return p
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch store.PostPatch) (*models.PostModel, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		updates["excerpt"] = *patch.Excerpt
	}
	if patch.CategoryID != nil {
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Tags != nil {
		updates["tags"] = models.StringArray(append([]string{}, (*patch.Tags)...))
	}
	if patch.IsPublished != nil {
		updates["is_published"] = *patch.IsPublished
	}
	if patch.FeaturedImage != nil {
		updates["featured_image"] = *patch.FeaturedImage
	}
	updates["updated_at"] = patch.UpdatedAt
	if patch.UpdatedAt.IsZero() {
		updates["updated_at"] = s.now()
	}

	res := s.db.WithContext(ctx).Model(&models.PostModel{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	// RowsAffected is zero for a no-op write too; the reload reports a
	// missing row as ErrNotFound.
	return s.FindPostByID(ctx, id)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.PostModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Delete(&models.CommentModel{}, "post_id = ?", id).Error
	})
}

func (s *Store) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PostModel{}).Where("id = ?", id).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Model(&models.PostModel{}).Where("id = ?", id).Pluck("view_count", &count).Error
	})
	return count, err
}

func (s *Store) AppendComment(ctx context.Context, postID string, comment models.CommentModel) error {
	if comment.ID == "" {
		comment.ID = models.NewID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}
	comment.PostID = postID

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.PostModel{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		if err := tx.Create(&comment).Error; err != nil {
			return translate(err)
		}
		return tx.Model(&models.PostModel{}).Where("id = ?", postID).
			UpdateColumn("updated_at", comment.CreatedAt).Error
	})
}

// categories

func (s *Store) CreateCategory(ctx context.Context, category *models.CategoryModel) error {
	return translate(s.db.WithContext(ctx).Create(category).Error)
}

func (s *Store) FindCategoryByID(ctx context.Context, id string) (*models.CategoryModel, error) {
	var cat models.CategoryModel
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cat, nil
}

func (s *Store) FindCategoriesByIDs(ctx context.Context, ids []string) ([]models.CategoryModel, error) {
	cats := []models.CategoryModel{}
	if len(ids) == 0 {
		return cats, nil
	}
	return cats, s.db.WithContext(ctx).Where("id IN ?", ids).Find(&cats).Error
}

func (s *Store) ListCategories(ctx context.Context) ([]models.CategoryModel, error) {
	cats := []models.CategoryModel{}
	return cats, s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
}

// users

func (s *Store) CreateUser(ctx context.Context, user *models.UserModel) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) ([]models.UserModel, error) {
	users := []models.UserModel{}
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).
		Select("id", "name", "email", "role", "created_at", "updated_at").
		Where("id IN ?", ids).
		Find(&users).Error
	return users, err
}
