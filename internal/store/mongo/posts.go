package mongo

import (
	"context"
	"regexp"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"user"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type postDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Slug          string             `bson:"slug"`
	Title         string             `bson:"title"`
	Content       string             `bson:"content"`
	Excerpt       string             `bson:"excerpt"`
	Category      primitive.ObjectID `bson:"category,omitempty"`
	Author        primitive.ObjectID `bson:"author"`
	Tags          []string           `bson:"tags"`
	IsPublished   bool               `bson:"isPublished"`
	FeaturedImage string             `bson:"featuredImage,omitempty"`
	ViewCount     int64              `bson:"viewCount"`
	Comments      []commentDoc       `bson:"comments"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d postDoc) model() models.PostModel {
	p := models.PostModel{
		Base:          models.Base{ID: d.ID.Hex(), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Slug:          d.Slug,
		Title:         d.Title,
		Content:       d.Content,
		Excerpt:       d.Excerpt,
		CategoryID:    hexOf(d.Category),
		AuthorID:      hexOf(d.Author),
		Tags:          models.StringArray(d.Tags),
		IsPublished:   d.IsPublished,
		FeaturedImage: d.FeaturedImage,
		ViewCount:     d.ViewCount,
		Comments:      make([]models.CommentModel, 0, len(d.Comments)),
	}
	if p.Tags == nil {
		p.Tags = models.StringArray{}
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, models.CommentModel{
			ID:        c.ID.Hex(),
			PostID:    p.ID,
			UserID:    hexOf(c.User),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return p
}

func (s *Store) CreatePost(ctx context.Context, post *models.PostModel) error {
	id := orNewID(post.ID)
	now := s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	doc := postDoc{
		ID:            id,
		Slug:          post.Slug,
		Title:         post.Title,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		Tags:          []string(post.Tags),
		IsPublished:   post.IsPublished,
		FeaturedImage: post.FeaturedImage,
		ViewCount:     post.ViewCount,
		Comments:      []commentDoc{},
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	doc.Category, _ = objectID(post.CategoryID)
	doc.Author, _ = objectID(post.AuthorID)

	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	post.ID = id.Hex()
	return nil
}

func (s *Store) FindPostByID(ctx context.Context, id string) (*models.PostModel, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p := doc.model()
	return &p, nil
}

func (s *Store) FindPostBySlug(ctx context.Context, slug string) (*models.PostModel, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"slug": slug}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p := doc.model()
	return &p, nil
}

func (s *Store) FindPosts(ctx context.Context, filter store.PostFilter, page store.Page) ([]models.PostModel, error) {
	if page.Skip < 0 {
		return []models.PostModel{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Skip))
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	cur, err := s.posts.Find(ctx, postQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.PostModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) CountPosts(ctx context.Context, filter store.PostFilter) (int64, error) {
	return s.posts.CountDocuments(ctx, postQuery(filter))
}

// postQuery builds the predicate for a filter. Search text is quoted so it
// matches literally.
func postQuery(f store.PostFilter) bson.M {
	and := bson.A{}
	if f.CategoryID != "" {
		id, ok := objectID(f.CategoryID)
		if !ok {
			return bson.M{"_id": primitive.NilObjectID}
		}
		and = append(and, bson.M{"category": id})
	}
	if f.PublishedOnly {
		if author, ok := objectID(f.AlsoAuthor); ok {
			and = append(and, bson.M{"$or": bson.A{
				bson.M{"isPublished": true},
				bson.M{"author": author},
			}})
		} else {
			and = append(and, bson.M{"isPublished": true})
		}
	}
	if f.Text != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"excerpt": re},
		}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch store.PostPatch) (*models.PostModel, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		set["excerpt"] = *patch.Excerpt
	}
	if patch.CategoryID != nil {
		cat, _ := objectID(*patch.CategoryID)
		set["category"] = cat
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if patch.IsPublished != nil {
		set["isPublished"] = *patch.IsPublished
	}
	if patch.FeaturedImage != nil {
		set["featuredImage"] = *patch.FeaturedImage
	}
	set["updatedAt"] = patch.UpdatedAt
	if patch.UpdatedAt.IsZero() {
		set["updatedAt"] = s.now()
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc postDoc
	if err := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p := doc.model()
	return &p, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return store.ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	oid, ok := objectID(id)
	if !ok {
		return 0, store.ErrNotFound
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"viewCount": 1})
	var out struct {
		ViewCount int64 `bson:"viewCount"`
	}
	err := s.posts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"viewCount": 1}}, opts).Decode(&out)
	if err != nil {
		return 0, translate(err)
	}
	return out.ViewCount, nil
}

func (s *Store) AppendComment(ctx context.Context, postID string, comment models.CommentModel) error {
	oid, ok := objectID(postID)
	if !ok {
		return store.ErrNotFound
	}
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	user, _ := objectID(comment.UserID)
	doc := commentDoc{
		ID:        orNewID(comment.ID),
		User:      user,
		Content:   comment.Content,
		CreatedAt: createdAt,
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$push": bson.M{"comments": doc},
		"$set":  bson.M{"updatedAt": createdAt},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
