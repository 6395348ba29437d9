package entity

import "time"

// SearchHistory is one similarity search as stored. Query holds an
// encrypted token.
type SearchHistory struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Query        string    `json:"-"`
	ResultsCount int       `json:"results_count"`
	CreatedAt    time.Time `json:"created_at"`
}
