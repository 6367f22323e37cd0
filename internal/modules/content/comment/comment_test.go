package comment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blogsphere/core/internal/middleware"
	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/modules/content/post"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/jwt"
	"github.com/blogsphere/core/internal/store/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	store  *memory.Store
	svc    *Service
	reader *models.Principal
	post   models.PostModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	reader := models.UserModel{Name: "Reader", Email: "reader@example.com", Role: models.RoleUser}
	require.NoError(t, s.CreateUser(ctx, &reader))
	p := models.PostModel{Title: "t", Content: "c", Slug: "t", AuthorID: reader.ID, IsPublished: true, ViewCount: 4}
	require.NoError(t, s.CreatePost(ctx, &p))

	return &fixture{
		store:  s,
		svc:    NewService(s, post.NewHydrator(s, s), nil),
		reader: &models.Principal{ID: reader.ID, Role: reader.Role},
		post:   p,
	}
}

func TestAppend(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Append(context.Background(), f.reader, f.post.ID, &CreateCommentDTO{Content: "  nice post  "})
	require.NoError(t, err)
	require.Len(t, v.Comments, 1)

	cm := v.Comments[0]
	assert.Equal(t, "nice post", cm.Content)
	assert.Equal(t, post.UserRef{ID: f.reader.ID, Name: "Reader", Email: "reader@example.com"}, cm.User)
	assert.True(t, models.IsObjectID(cm.ID))
	assert.WithinDuration(t, time.Now(), cm.CreatedAt, time.Minute)
	assert.EqualValues(t, 4, v.ViewCount)
}

func TestAppendRequiresContent(t *testing.T) {
	f := newFixture(t)
	for _, content := range []string{"", " \n\t "} {
		_, err := f.svc.Append(context.Background(), f.reader, f.post.ID, &CreateCommentDTO{Content: content})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Equal(t, "Comment content is required", err.Error())
	}
}

func TestAppendMissingPost(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Append(context.Background(), f.reader, models.NewID(), &CreateCommentDTO{Content: "hi"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Post not found", err.Error())
}

func TestConcurrentAppendsAllSurvive(t *testing.T) {
	f := newFixture(t)
	const n = 40

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Append(context.Background(), f.reader, f.post.ID, &CreateCommentDTO{Content: fmt.Sprintf("c%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.store.FindPostByID(context.Background(), f.post.ID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, n)
	seen := map[string]bool{}
	for _, cm := range stored.Comments {
		seen[cm.Content] = true
	}
	assert.Len(t, seen, n)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	issuer := jwt.NewIssuer("secret", time.Hour)
	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api"), middleware.Auth(issuer, f.store))
	token, err := issuer.Sign(f.reader.ID)
	require.NoError(t, err)

	send := func(id, body, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/posts/"+id+"/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send(f.post.ID, `{"content":"hi"}`, "").Code)

	w := send(f.post.ID, "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Comment content is required")

	assert.Equal(t, http.StatusNotFound, send(models.NewID(), `{"content":"hi"}`, token).Code)

	w = send(f.post.ID, `{"content":"hi"}`, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data post.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Comments, 1)
	assert.Equal(t, "Reader", body.Data.Comments[0].User.Name)
}
