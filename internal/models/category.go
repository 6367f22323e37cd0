package models

// CategoryModel groups posts.
type CategoryModel struct {
	Base
	Name        string `json:"name"        gorm:"type:varchar(191);uniqueIndex;not null"`
	Slug        string `json:"slug"        gorm:"type:varchar(191);index"`
	Description string `json:"description" gorm:"type:varchar(255)"`
}

func (CategoryModel) TableName() string { return "categories" }
