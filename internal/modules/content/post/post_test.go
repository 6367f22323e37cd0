package post

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/modules/content/category"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/blogsphere/core/internal/pkg/pagination"
	"github.com/blogsphere/core/internal/store"
	"github.com/blogsphere/core/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	query    *Query
	svc      *Service
	images   *fakeImages
	purges   *countingPurger
	author   *models.Principal
	other    *models.Principal
	admin    *models.Principal
	category models.CategoryModel
	clock    time.Time
}

type fakeImages struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (f *fakeImages) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	handle := fmt.Sprintf("img-%d-%s", len(f.saved)+1, file.Filename)
	f.saved = append(f.saved, handle)
	return handle, nil
}

type countingPurger struct {
	mu sync.Mutex
	n  int
}

func (p *countingPurger) Purge(context.Context) {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	f := &fixture{
		store:  s,
		images: &fakeImages{},
		purges: &countingPurger{},
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.author = f.user(t, "Ada", models.RoleUser)
	f.other = f.user(t, "Bob", models.RoleUser)
	f.admin = f.user(t, "Root", models.RoleAdmin)

	f.category = models.CategoryModel{Name: "Tech", Slug: "tech"}
	require.NoError(t, s.CreateCategory(ctx, &f.category))

	hydrator := NewHydrator(s, s)
	f.query = NewQuery(s, hydrator, NewViewCounter(s, nil))
	f.svc = NewService(s, category.NewService(s), f.images, hydrator, f.purges)
	f.svc.now = func() time.Time { return f.clock.Add(time.Hour) }
	return f
}

func (f *fixture) user(t *testing.T, name, role string) *models.Principal {
	t.Helper()
	u := models.UserModel{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, f.store.CreateUser(context.Background(), &u))
	return &models.Principal{ID: u.ID, Role: u.Role}
}

// seed stores a post directly; each call is one second newer than the last.
func (f *fixture) seed(t *testing.T, mutate func(p *models.PostModel)) models.PostModel {
	t.Helper()
	f.clock = f.clock.Add(time.Second)
	p := models.PostModel{
		Base:        models.Base{CreatedAt: f.clock},
		Title:       "Post",
		Content:     "body",
		CategoryID:  f.category.ID,
		AuthorID:    f.author.ID,
		IsPublished: true,
	}
	if mutate != nil {
		mutate(&p)
	}
	if p.Slug == "" {
		p.Slug = "post"
	}
	require.NoError(t, f.store.CreatePost(context.Background(), &p))
	return p
}

func TestParsePostKey(t *testing.T) {
	id := models.NewID()
	assert.Equal(t, PostKey{Kind: ByID, Value: id}, ParsePostKey(id))
	assert.Equal(t, PostKey{Kind: ByID, Value: "abcdefabcdefabcdefabcdef"}, ParsePostKey("ABCDEFabcdefABCDEFabcdef"))
	assert.Equal(t, PostKey{Kind: BySlug, Value: "hello-world"}, ParsePostKey("hello-world"))
	assert.Equal(t, BySlug, ParsePostKey("abcdefabcdefabcdefabcde").Kind)
	assert.Equal(t, BySlug, ParsePostKey("zzzzzzzzzzzzzzzzzzzzzzzz").Kind)
}

func TestListPaginationArithmetic(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 23; i++ {
		f.seed(t, nil)
	}
	ctx := context.Background()
	for _, limit := range []int{1, 5, 10, 23, 50} {
		for page := 1; page <= 6; page++ {
			q := pagination.New(page, limit)
			res, err := f.query.List(ctx, ListQuery{Page: q})
			require.NoError(t, err)
			assert.EqualValues(t, 23, res.Total)
			assert.Len(t, res.Items, q.SliceLen(23), "page %d limit %d", page, limit)
			assert.Equal(t, (23+limit-1)/limit, q.Summary(res.Total).Pages)
		}
	}
}

func TestListNewestFirstWithHydratedRefs(t *testing.T) {
	f := newFixture(t)
	first := f.seed(t, func(p *models.PostModel) { p.Title = "first" })
	second := f.seed(t, func(p *models.PostModel) { p.Title = "second" })

	res, err := f.query.List(context.Background(), ListQuery{Page: pagination.New(1, 10)})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, second.ID, res.Items[0].ID)
	assert.Equal(t, first.ID, res.Items[1].ID)

	v := res.Items[0]
	assert.Equal(t, UserRef{ID: f.author.ID, Name: "Ada", Email: "Ada@example.com"}, v.Author)
	require.NotNil(t, v.Category)
	assert.Equal(t, CategoryRef{ID: f.category.ID, Name: "Tech", Slug: "tech"}, *v.Category)
}

func TestListPublishedOnlyByDefault(t *testing.T) {
	f := newFixture(t)
	pub := f.seed(t, nil)
	f.seed(t, func(p *models.PostModel) { p.IsPublished = false })

	res, err := f.query.List(context.Background(), ListQuery{Page: pagination.New(1, 10)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, pub.ID, res.Items[0].ID)
	assert.EqualValues(t, 1, res.Total)
}

func TestListVisibilityModes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, nil)
	f.seed(t, func(p *models.PostModel) { p.IsPublished = false })
	f.seed(t, func(p *models.PostModel) {
		p.IsPublished = false
		p.AuthorID = f.other.ID
	})
	ctx := context.Background()

	cases := []struct {
		name      string
		principal *models.Principal
		want      int64
	}{
		{"anonymous", nil, 1},
		{"author sees own drafts", f.author, 2},
		{"other sees own drafts", f.other, 2},
		{"admin sees all", f.admin, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.query.List(ctx, ListQuery{
				Page:       pagination.New(1, 10),
				Visibility: ResolveVisibility(false, tc.principal),
				Principal:  tc.principal,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Total)
		})
	}

	assert.Equal(t, VisibilityPublished, ResolveVisibility(true, f.admin))
}

func TestListByCategory(t *testing.T) {
	f := newFixture(t)
	other := models.CategoryModel{Name: "Life"}
	require.NoError(t, f.store.CreateCategory(context.Background(), &other))
	f.seed(t, nil)
	in := f.seed(t, func(p *models.PostModel) { p.CategoryID = other.ID })

	res, err := f.query.List(context.Background(), ListQuery{Page: pagination.New(1, 10), CategoryID: other.ID})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, in.ID, res.Items[0].ID)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	f := newFixture(t)
	f.seed(t, func(p *models.PostModel) { p.Title = "Learning React" })
	f.seed(t, func(p *models.PostModel) { p.Content = "all about REACT hooks" })
	f.seed(t, func(p *models.PostModel) { p.Excerpt = "reactive streams" })
	f.seed(t, func(p *models.PostModel) { p.Title = "Vue" })
	f.seed(t, func(p *models.PostModel) {
		p.Title = "React draft"
		p.IsPublished = false
	})

	res, err := f.query.Search(context.Background(), "react", pagination.New(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	for _, v := range res.Items {
		assert.True(t, v.IsPublished)
	}
}

func TestSearchMatchesLiterally(t *testing.T) {
	f := newFixture(t)
	f.seed(t, func(p *models.PostModel) { p.Title = "C++ tips" })
	f.seed(t, func(p *models.PostModel) { p.Title = "Cats" })

	res, err := f.query.Search(context.Background(), "c++", pagination.New(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.Search(context.Background(), "  ", pagination.New(1, 10))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Search query is required", err.Error())
}

func TestGetByIDAndSlug(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, func(p *models.PostModel) { p.Slug = "hello-world" })

	v, err := f.query.Get(context.Background(), ParsePostKey(p.ID))
	require.NoError(t, err)
	assert.Equal(t, p.ID, v.ID)
	assert.EqualValues(t, 1, v.ViewCount)

	v, err = f.query.Get(context.Background(), ParsePostKey("hello-world"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, v.ID)
	assert.EqualValues(t, 2, v.ViewCount)

	_, err = f.query.Get(context.Background(), ParsePostKey("missing"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetPrefersIDOverSlug(t *testing.T) {
	f := newFixture(t)
	target := f.seed(t, nil)
	f.seed(t, func(p *models.PostModel) { p.Slug = target.ID })

	v, err := f.query.Get(context.Background(), ParsePostKey(target.ID))
	require.NoError(t, err)
	assert.Equal(t, target.ID, v.ID)

	// A hex slug is never reached through the slug path.
	ghost := models.NewID()
	f.seed(t, func(p *models.PostModel) { p.Slug = ghost })
	_, err = f.query.Get(context.Background(), ParsePostKey(ghost))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetHydratesCommentUsers(t *testing.T) {
	f := newFixture(t)
	gone := models.NewID()
	p := f.seed(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.AppendComment(ctx, p.ID, models.CommentModel{UserID: f.other.ID, Content: "nice"}))
	require.NoError(t, f.store.AppendComment(ctx, p.ID, models.CommentModel{UserID: gone, Content: "old"}))

	v, err := f.query.Get(ctx, ParsePostKey(p.ID))
	require.NoError(t, err)
	require.Len(t, v.Comments, 2)
	assert.Equal(t, UserRef{ID: f.other.ID, Name: "Bob", Email: "Bob@example.com"}, v.Comments[0].User)
	assert.Equal(t, UserRef{ID: gone}, v.Comments[1].User)
}

func TestConcurrentGetsIncrementExactly(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, nil)
	const n = 64

	var wg sync.WaitGroup
	seen := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.query.Get(context.Background(), ParsePostKey(p.ID))
			if assert.NoError(t, err) {
				seen <- v.ViewCount
			}
		}()
	}
	wg.Wait()
	close(seen)

	counts := map[int64]bool{}
	for c := range seen {
		counts[c] = true
	}
	assert.Len(t, counts, n)

	stored, err := f.store.FindPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, stored.ViewCount)
}

type failingViews struct {
	store.PostStore
}

func (failingViews) IncrementViewCount(context.Context, string) (int64, error) {
	return 0, errors.New("write conflict")
}

func TestGetSurvivesViewCounterFailure(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, func(p *models.PostModel) { p.ViewCount = 7 })
	q := NewQuery(f.store, NewHydrator(f.store, f.store), NewViewCounter(failingViews{f.store}, nil))

	v, err := q.Get(context.Background(), ParsePostKey(p.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 7, v.ViewCount)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Create(context.Background(), f.author, &CreateInput{
		Title:    "Hello, World!",
		Content:  "body",
		Category: f.category.ID,
		Tags:     []string{"go", "web"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", v.Slug)
	assert.Equal(t, f.author.ID, v.Author.ID)
	assert.Equal(t, "Ada", v.Author.Name)
	assert.Equal(t, []string{"go", "web"}, v.Tags)
	assert.False(t, v.IsPublished)
	assert.Zero(t, v.ViewCount)
	assert.Empty(t, v.Comments)
	assert.Equal(t, 1, f.purges.count())
}

func TestCreateSlugFallsBackToID(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Create(context.Background(), f.author, &CreateInput{Title: "!!!", Content: "x", Category: f.category.ID})
	require.NoError(t, err)
	assert.Equal(t, v.ID, v.Slug)
}

func TestCreateStoresCanonicalCategoryID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	upper := strings.ToUpper(f.category.ID)

	v, err := f.svc.Create(ctx, f.author, &CreateInput{Title: "t", Content: "c", Category: upper, IsPublished: true})
	require.NoError(t, err)
	require.NotNil(t, v.Category)
	assert.Equal(t, CategoryRef{ID: f.category.ID, Name: "Tech", Slug: "tech"}, *v.Category)

	for _, filter := range []string{f.category.ID, upper} {
		res, err := f.query.List(ctx, ListQuery{Page: pagination.New(1, 10), CategoryID: filter})
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Total, filter)
	}
}

func TestUpdateStoresCanonicalCategoryID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := models.CategoryModel{Name: "Life", Slug: "life"}
	require.NoError(t, f.store.CreateCategory(ctx, &other))
	p := f.seed(t, nil)

	upper := strings.ToUpper(other.ID)
	v, err := f.svc.Update(ctx, f.author, p.ID, &UpdateInput{Category: &upper})
	require.NoError(t, err)
	require.NotNil(t, v.Category)
	assert.Equal(t, "Life", v.Category.Name)

	stored, err := f.store.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, stored.CategoryID)
}

func TestCreateUnknownCategoryStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, cat := range []string{models.NewID(), "not-an-id"} {
		_, err := f.svc.Create(ctx, f.author, &CreateInput{Title: "t", Content: "c", Category: cat})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, "Category not found", err.Error())
	}
	n, err := f.store.CountPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.purges.count())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err := f.svc.Create(context.Background(), f.author, &CreateInput{Title: string(long)})
	require.Error(t, err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.ElementsMatch(t, []string{
		"Title cannot be more than 100 characters",
		"Content is required",
		"Category is required",
	}, appErr.Details)
}

func TestCreateStoresImageHandle(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Create(context.Background(), f.author, &CreateInput{
		Title: "t", Content: "c", Category: f.category.ID,
		Image: &multipart.FileHeader{Filename: "cover.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "img-1-cover.png", v.FeaturedImage)
}

type failingInserts struct {
	*memory.Store
}

func (failingInserts) CreatePost(context.Context, *models.PostModel) error {
	return errors.New("insert failed")
}

func TestCreateFailedInsertStoresNoImage(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingInserts{f.store}, category.NewService(f.store), f.images, NewHydrator(f.store, f.store), f.purges)

	_, err := svc.Create(context.Background(), f.author, &CreateInput{
		Title: "t", Content: "c", Category: f.category.ID,
		Image: &multipart.FileHeader{Filename: "cover.png"},
	})
	require.Error(t, err)
	assert.Empty(t, f.images.saved)
	assert.Zero(t, f.purges.count())
}

func TestCreateFailedUploadStoresNoPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.images.err = apperr.Validation("Only image files are allowed (png)")

	_, err := f.svc.Create(ctx, f.author, &CreateInput{
		Title: "t", Content: "c", Category: f.category.ID,
		Image: &multipart.FileHeader{Filename: "cover.exe"},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	n, err := f.store.CountPosts(ctx, store.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.purges.count())
}

func TestUpdateByOwner(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, func(p *models.PostModel) { p.Tags = models.StringArray{"old"} })
	title := "New title"
	tags := []string{"a", "b"}
	published := false

	v, err := f.svc.Update(context.Background(), f.author, p.ID, &UpdateInput{
		Title: &title, Tags: &tags, IsPublished: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", v.Title)
	assert.Equal(t, "post", v.Slug)
	assert.Equal(t, []string{"a", "b"}, v.Tags)
	assert.False(t, v.IsPublished)
	assert.Equal(t, "body", v.Content)
	assert.Equal(t, p.AuthorID, v.Author.ID)
	assert.True(t, v.UpdatedAt.After(p.UpdatedAt))
}

func TestUpdateByAdmin(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, nil)
	content := "moderated"
	v, err := f.svc.Update(context.Background(), f.admin, p.ID, &UpdateInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "moderated", v.Content)
	assert.Equal(t, f.author.ID, v.Author.ID)
}

func TestUpdateByNonOwnerIsForbiddenAndLeavesPost(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, nil)
	before, err := f.store.FindPostByID(context.Background(), p.ID)
	require.NoError(t, err)

	title := "hijacked"
	_, err = f.svc.Update(context.Background(), f.other, p.ID, &UpdateInput{Title: &title})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Not authorized to update this post", err.Error())

	after, err := f.store.FindPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, f.purges.count())
}

func TestUpdateCheckOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, nil)
	ctx := context.Background()
	empty := ""
	unknown := models.NewID()

	// validation precedes the existence check
	_, err := f.svc.Update(ctx, f.author, models.NewID(), &UpdateInput{Title: &empty})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	// existence precedes authorization
	_, err = f.svc.Update(ctx, f.other, models.NewID(), &UpdateInput{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Post not found", err.Error())

	// authorization precedes the category check
	_, err = f.svc.Update(ctx, f.other, p.ID, &UpdateInput{Category: &unknown})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Update(ctx, f.author, p.ID, &UpdateInput{Category: &unknown})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Category not found", err.Error())
}

func TestUpdateReplacesImage(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, func(p *models.PostModel) { p.FeaturedImage = "old.png" })
	v, err := f.svc.Update(context.Background(), f.author, p.ID, &UpdateInput{
		Image: &multipart.FileHeader{Filename: "new.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "img-1-new.png", v.FeaturedImage)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, nil)

	err := f.svc.Delete(ctx, f.other, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Not authorized to delete this post", err.Error())

	require.NoError(t, f.svc.Delete(ctx, f.author, p.ID))
	_, err = f.store.FindPostByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, f.purges.count())
}

func TestDeleteMissingIsNotFoundForAdmin(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Delete(context.Background(), f.admin, models.NewID())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMutationsRequirePrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, nil, &CreateInput{})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = f.svc.Update(ctx, nil, models.NewID(), &UpdateInput{})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.True(t, apperr.Is(f.svc.Delete(ctx, nil, models.NewID()), apperr.KindUnauthorized))
}
