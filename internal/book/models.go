package book

import "time"

// Book is a catalog entry. Stock counts the physically available copies; it is
// never negative and only the loan workflow mutates it once a book exists.
type Book struct {
	ID        int64     `json:"id"`
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available reports whether at least one copy can be lent out.
func (b *Book) Available() bool {
	return b.Stock > 0
}
