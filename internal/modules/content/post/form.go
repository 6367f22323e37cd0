package post

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// multipartMemory caps the form parts held in memory; larger files spill to
// temporary files.
const multipartMemory = 8 << 20

// FeaturedImageField is the multipart field carrying the post image.
const FeaturedImageField = "featuredImage"

var errBadPublishedFlag = apperr.Validation("isPublished must be a boolean")

// postForm is a request body normalized once, whatever its encoding.
// Absent fields stay nil.
type postForm struct {
	Title       *string
	Content     *string
	Excerpt     *string
	Category    *string
	Tags        *[]string
	IsPublished *bool
	Image       *multipart.FileHeader
}

// jsonPostBody accepts tags as an array or a comma-separated string and
// isPublished as a bool or its string form.
type jsonPostBody struct {
	Title       *string         `json:"title"`
	Content     *string         `json:"content"`
	Excerpt     *string         `json:"excerpt"`
	Category    *string         `json:"category"`
	Tags        json.RawMessage `json:"tags"`
	IsPublished json.RawMessage `json:"isPublished"`
}

// bindPostForm reads a multipart, urlencoded or JSON post body.
func bindPostForm(c *gin.Context) (*postForm, error) {
	switch c.ContentType() {
	case binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			return nil, apperr.Validation("Invalid multipart body")
		}
		form, err := formValues(c.Request.MultipartForm.Value)
		if err != nil {
			return nil, err
		}
		form.Image, err = c.FormFile(FeaturedImageField)
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			return nil, apperr.Validation("Invalid featured image")
		}
		return form, nil
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, apperr.Validation("Invalid request body")
		}
		return formValues(c.Request.PostForm)
	default:
		return bindJSON(c)
	}
}

func formValues(values map[string][]string) (*postForm, error) {
	form := &postForm{
		Title:    firstValue(values, "title"),
		Content:  firstValue(values, "content"),
		Excerpt:  firstValue(values, "excerpt"),
		Category: firstValue(values, "category"),
	}
	tags, ok := values["tags"]
	if !ok {
		tags, ok = values["tags[]"]
	}
	if ok {
		if len(tags) == 1 {
			tags = strings.Split(tags[0], ",")
		}
		normalized := normalizeTags(tags)
		form.Tags = &normalized
	}
	if raw := firstValue(values, "isPublished"); raw != nil {
		flag, err := parseFlag(*raw)
		if err != nil {
			return nil, err
		}
		form.IsPublished = &flag
	}
	return form, nil
}

func firstValue(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := v[0]
	return &s
}

func bindJSON(c *gin.Context) (*postForm, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apperr.Validation("Invalid request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &postForm{}, nil
	}
	var body jsonPostBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, apperr.Validation("Invalid request body")
	}
	form := &postForm{
		Title:    body.Title,
		Content:  body.Content,
		Excerpt:  body.Excerpt,
		Category: body.Category,
	}
	if present(body.Tags) {
		tags, err := decodeTags(body.Tags)
		if err != nil {
			return nil, err
		}
		form.Tags = &tags
	}
	if present(body.IsPublished) {
		flag, err := decodeFlag(body.IsPublished)
		if err != nil {
			return nil, err
		}
		form.IsPublished = &flag
	}
	return form, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func decodeTags(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return normalizeTags(list), nil
	}
	var csv string
	if err := json.Unmarshal(raw, &csv); err != nil {
		return nil, apperr.Validation("tags must be a list of strings")
	}
	return normalizeTags(strings.Split(csv, ",")), nil
}

func decodeFlag(raw json.RawMessage) (bool, error) {
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, errBadPublishedFlag
	}
	return parseFlag(s)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errBadPublishedFlag
}

// normalizeTags trims every tag and drops empty ones. Order and duplicates
// are kept.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
