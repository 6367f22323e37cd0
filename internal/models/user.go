package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserModel is a registered author or reader.
type UserModel struct {
	Base
	Name     string `json:"name"  gorm:"type:varchar(191);not null"`
	Email    string `json:"email" gorm:"type:varchar(191);uniqueIndex;not null"`
	Password string `json:"-"     gorm:"not null"`
	Role     string `json:"role"  gorm:"type:varchar(16);default:user"`
}

func (UserModel) TableName() string { return "users" }

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID   string
	Role string
}

// IsElevated reports whether the principal bypasses ownership checks.
func (p *Principal) IsElevated() bool {
	return p != nil && p.Role == RoleAdmin
}

// Owns reports whether the principal authored a record.
func (p *Principal) Owns(authorID string) bool {
	return p != nil && p.ID != "" && p.ID == authorID
}
