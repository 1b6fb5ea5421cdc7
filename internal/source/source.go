// Package source lists and fetches documents for ingestion.
package source

import "context"

// DocumentRef identifies one document in a source. Name is the display/source
// name carried into Page records; ID is the source-specific fetch handle;
// Link is an optional external locator for citations.
type DocumentRef struct {
	Name string
	ID   string
	Link string
}

// Source is the document source collaborator. Both operations are fallible;
// a fetch failure for one document must not abort ingestion of the others
// (the orchestrator skips and logs).
type Source interface {
	List(ctx context.Context) ([]DocumentRef, error)
	Fetch(ctx context.Context, ref DocumentRef) ([]byte, error)
}
