package models

// PostModel is a blog post with its embedded comment ledger.
type PostModel struct {
	Base
	Slug          string         `json:"slug"          gorm:"type:varchar(191);index"`
	Title         string         `json:"title"         gorm:"type:varchar(191);not null"`
	Content       string         `json:"content"       gorm:"type:longtext"`
	Excerpt       string         `json:"excerpt"       gorm:"type:varchar(255)"`
	CategoryID    string         `json:"category"      gorm:"type:char(24);index"`
	AuthorID      string         `json:"author"        gorm:"type:char(24);index;not null"`
	Tags          StringArray    `json:"tags"          gorm:"type:text"`
	IsPublished   bool           `json:"isPublished"   gorm:"default:false;index"`
	FeaturedImage string         `json:"featuredImage"`
	ViewCount     int64          `json:"viewCount"     gorm:"default:0"`
	Comments      []CommentModel `json:"comments"      gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (PostModel) TableName() string { return "posts" }

// Clone returns a deep copy that shares no slices with p.
func (p PostModel) Clone() PostModel {
	out := p
	if p.Tags != nil {
		out.Tags = append(StringArray{}, p.Tags...)
	}
	if p.Comments != nil {
		out.Comments = append([]CommentModel{}, p.Comments...)
	}
	return out
}
