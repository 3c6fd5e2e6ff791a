package models

// BookReading is a book joined with its reading record.
// BookID and ReadingID never change after creation.
type BookReading struct {
	BookID       int64  `json:"book_id"`
	ReadingID    int64  `json:"reading_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Genre        string `json:"genre"`
	NumOfPages   int    `json:"num_of_pages"`
	CurrentPage  int    `json:"current_page"`
	DateModified string `json:"date_modified"`
	IsDeleted    bool   `json:"is_deleted"`
}

// NewBookReading holds the full field set required to insert a book and its reading record
type NewBookReading struct {
	Title        string
	Author       string
	Genre        string
	NumOfPages   int
	CurrentPage  int
	DateModified string
}

// Completion represents derived progress metrics for display
type Completion struct {
	PagesLeft       int `json:"pages_left"`
	PercentComplete int `json:"percent_complete"`
}

// Progress is returned after a progress update so callers can re-render
// without reading the record back from storage
type Progress struct {
	ReadingID    int64      `json:"reading_id"`
	CurrentPage  int        `json:"current_page"`
	DateModified string     `json:"date_modified"`
	Completion   Completion `json:"completion"`
}

// InProgress reports whether the reader has started but not finished the book
func (r BookReading) InProgress() bool {
	return r.CurrentPage > 0 && r.CurrentPage < r.NumOfPages
}
