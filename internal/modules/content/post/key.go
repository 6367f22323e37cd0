package post

import "github.com/blogsphere/core/internal/models"

// KeyKind tells how a path token addresses a post.
type KeyKind int

const (
	ByID KeyKind = iota
	BySlug
)

// PostKey is a classified path token.
type PostKey struct {
	Kind  KeyKind
	Value string
}

// ParsePostKey treats any 24-hex token as an id, even when a post happens
// to carry that string as its slug. Ids are stored lowercase.
func ParsePostKey(token string) PostKey {
	if models.IsObjectID(token) {
		return PostKey{Kind: ByID, Value: models.NormalizeID(token)}
	}
	return PostKey{Kind: BySlug, Value: token}
}

func (k PostKey) String() string {
	if k.Kind == ByID {
		return "id:" + k.Value
	}
	return "slug:" + k.Value
}
