package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "rod").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
//
// The HTTP engine fills HTML and leaves text extraction to the caller. The
// rendering engine reads Text, Title and Description from the live DOM and
// may leave HTML empty.
type FetchResult struct {
	HTML        string
	Text        string
	Title       string
	Description string
	StatusCode  int
	FinalURL    string
	EngineName  string
}
