package post

import (
	"mime/multipart"
	"time"

	"github.com/blogsphere/core/internal/pkg/validate"
)

// CreateInput is a normalized create request.
type CreateInput struct {
	Title       string `binding:"required,max=100" label:"Title"`
	Content     string `binding:"required"         label:"Content"`
	Excerpt     string `binding:"max=200"          label:"Excerpt"`
	Category    string `binding:"required"         label:"Category"`
	Tags        []string
	IsPublished bool
	Image       *multipart.FileHeader `binding:"-"`
}

// UpdateInput is a normalized partial update. Nil fields are left alone.
type UpdateInput struct {
	Title       *string `binding:"omitempty,min=1,max=100" label:"Title"`
	Content     *string `binding:"omitempty,min=1"         label:"Content"`
	Excerpt     *string `binding:"omitempty,max=200"       label:"Excerpt"`
	Category    *string `binding:"omitempty,min=1"         label:"Category"`
	Tags        *[]string
	IsPublished *bool
	Image       *multipart.FileHeader `binding:"-"`
}

func (in *CreateInput) Validate() error { return validate.Struct(in) }
func (in *UpdateInput) Validate() error { return validate.Struct(in) }

func (f *postForm) createInput() *CreateInput {
	in := &CreateInput{
		Title:    deref(f.Title),
		Content:  deref(f.Content),
		Excerpt:  deref(f.Excerpt),
		Category: deref(f.Category),
		Tags:     []string{},
		Image:    f.Image,
	}
	if f.Tags != nil {
		in.Tags = *f.Tags
	}
	if f.IsPublished != nil {
		in.IsPublished = *f.IsPublished
	}
	return in
}

func (f *postForm) updateInput() *UpdateInput {
	return &UpdateInput{
		Title:       f.Title,
		Content:     f.Content,
		Excerpt:     f.Excerpt,
		Category:    f.Category,
		Tags:        f.Tags,
		IsPublished: f.IsPublished,
		Image:       f.Image,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UserRef is the public projection of a user. Only ID is set when the user
// no longer exists.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CategoryRef is the public projection of a category.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`
}

type CommentView struct {
	ID        string    `json:"id"`
	User      UserRef   `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is a post as returned to clients.
type View struct {
	ID            string        `json:"id"`
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt"`
	Category      *CategoryRef  `json:"category"`
	Author        UserRef       `json:"author"`
	Tags          []string      `json:"tags"`
	IsPublished   bool          `json:"isPublished"`
	FeaturedImage string        `json:"featuredImage,omitempty"`
	ViewCount     int64         `json:"viewCount"`
	Comments      []CommentView `json:"comments"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ListResult is one page of posts with the total match count.
type ListResult struct {
	Items []View
	Total int64
}
