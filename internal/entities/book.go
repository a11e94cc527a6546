package entities

import "time"

type BookStatus string

const (
	BookStatusAvailable  BookStatus = "available"
	BookStatusCheckedOut BookStatus = "checked_out"
	BookStatusLost       BookStatus = "lost"
)

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusAvailable, BookStatusCheckedOut, BookStatusLost:
		return true
	}
	return false
}

type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:500;not null;index" json:"title"`
	ISBN          string     `gorm:"column:isbn;size:17;not null;uniqueIndex" json:"isbn"`
	AuthorID      *uint      `gorm:"index" json:"author_id"`
	Author        *Author    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	PublishedYear *int       `json:"published_year"`
	Status        BookStatus `gorm:"size:20;not null;default:available;index" json:"status"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Populated by joined list/get queries only.
	AuthorName *string `gorm:"->;-:migration" json:"author_name"`
}

func (Book) TableName() string {
	return "books"
}
