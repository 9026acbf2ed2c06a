package models

import (
	"time"

	"gorm.io/datatypes"
)

// Stock tracks units on hand. Remain never exceeds Quantity.
type Stock struct {
	Quantity int `json:"quantity"`
	Remain   int `json:"remain"`
}

// Product represents a catalog item. Deleting a product only sets IsDeleted.
type Product struct {
	ID           string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CategoryID   string                      `json:"category" gorm:"index;type:varchar(36)"`
	Title        string                      `json:"title" gorm:"type:varchar(255);not null"`
	SortDesc     string                      `json:"sortDesc" gorm:"type:text"`
	LongDesc     string                      `json:"longDesc" gorm:"type:text"`
	Stock        Stock                       `json:"stock" gorm:"embedded;embeddedPrefix:stock_"`
	Color        datatypes.JSONSlice[string] `json:"color"`
	Slug         string                      `json:"slug" gorm:"index;type:varchar(255)"` // display only, may repeat
	Price        float64                     `json:"price"`
	SalePrice    *float64                    `json:"sale_price,omitempty"`
	TotalSelling int                         `json:"total_selling" gorm:"index"`
	ImageURL     string                      `json:"image_url"`
	GalleryImage datatypes.JSONSlice[string] `json:"gallery_image"`
	IsDeleted    bool                        `json:"isDeleted,omitempty" gorm:"index;not null;default:false"`
	CreatedAt    time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}
