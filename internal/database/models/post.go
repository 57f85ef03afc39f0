package models

// Post is a plain admin-managed record with no business rules
type Post struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Title string `gorm:"not null" json:"title"`
}

// TableName overrides the table name
func (Post) TableName() string {
	return "posts"
}
