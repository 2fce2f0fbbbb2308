package engine

import (
	"context"
	"fmt"
)

// RenderFunc is the callback that drives the headless browser. It is
// injected from main.go so engine/ never imports scraper/.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the Tier 2 engine: it delegates to a scripted browser that
// executes page scripts and reads text back from the rendered DOM.
type RodEngine struct {
	render RenderFunc
}

// NewRodEngine creates a RodEngine around render.
func NewRodEngine(render RenderFunc) *RodEngine {
	return &RodEngine{render: render}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("rod: render func not configured")
	}

	r := *req
	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("rod: %w", err)
	}
	result.EngineName = e.Name()
	return result, nil
}
