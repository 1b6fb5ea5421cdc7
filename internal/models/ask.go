package models

import "fmt"

// AskRequest is a question over the current corpus.
type AskRequest struct {
	Query string `json:"query"`
}

// Validate ensures the request has a non-empty query.
func (r *AskRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// AskResponse is the response for an ask request.
type AskResponse struct {
	Answer    Answer `json:"answer"`
	QueryTime int64  `json:"query_time_ms"`
	Query     string `json:"query"`
}

// IngestResponse reports the outcome of an ingestion run.
type IngestResponse struct {
	Pages     int   `json:"pages"`
	Documents int   `json:"documents"`
	TimeMS    int64 `json:"time_ms"`
}
