// Package models defines core data structures for pages, matches, and answers.
package models

import "time"

// Page is the atomic retrievable unit: one page of one source document with
// its extracted text. Immutable once created.
type Page struct {
	Source     string `json:"source"`
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
	OriginLink string `json:"origin_link,omitempty"`
}

// Match is a single retrieval hit: a page and its squared Euclidean distance
// to the query embedding (smaller is more similar).
type Match struct {
	Page     Page    `json:"page"`
	Distance float64 `json:"distance"`
}

// Answer is a generated response with the matches it was grounded on.
// Citations are always exactly the MatchSet used to build the request.
type Answer struct {
	Text      string  `json:"text"`
	Citations []Match `json:"citations"`
}

// Exchange is one question/answer turn kept in the session history.
type Exchange struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Answer    Answer    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
