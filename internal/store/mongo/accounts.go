package mongo

import (
	"context"
	"time"

	"github.com/blogsphere/core/internal/models"
	"github.com/blogsphere/core/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d categoryDoc) model() models.CategoryModel {
	return models.CategoryModel{
		Base:        models.Base{ID: d.ID.Hex(), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
	}
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) model() models.UserModel {
	return models.UserModel{
		Base:     models.Base{ID: d.ID.Hex(), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Name:     d.Name,
		Email:    d.Email,
		Password: d.Password,
		Role:     d.Role,
	}
}

func (s *Store) stamp(b *models.Base) primitive.ObjectID {
	id := orNewID(b.ID)
	b.ID = id.Hex()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	return id
}

func (s *Store) CreateCategory(ctx context.Context, category *models.CategoryModel) error {
	id := s.stamp(&category.Base)
	_, err := s.categories.InsertOne(ctx, categoryDoc{
		ID:          id,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	})
	return translate(err)
}

func (s *Store) FindCategoryByID(ctx context.Context, id string) (*models.CategoryModel, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	var doc categoryDoc
	if err := s.categories.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	c := doc.model()
	return &c, nil
}

func (s *Store) FindCategoriesByIDs(ctx context.Context, ids []string) ([]models.CategoryModel, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []models.CategoryModel{}, nil
	}
	cur, err := s.categories.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.CategoryModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.CategoryModel, error) {
	cur, err := s.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.CategoryModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.UserModel) error {
	id := s.stamp(&user.Base)
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:        id,
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.Password,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	return translate(err)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.UserModel, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.UserModel, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u := doc.model()
	return &u, nil
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) ([]models.UserModel, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []models.UserModel{}, nil
	}
	// Hydration only needs the display fields.
	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "role": 1})
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.UserModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}
