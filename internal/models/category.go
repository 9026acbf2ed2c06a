package models

// Category maps a stable slug to the identifier products reference.
type Category struct {
	ID   string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name string `json:"name" gorm:"type:varchar(255);not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;type:varchar(255);not null"`
}
