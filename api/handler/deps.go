package handler

import (
	"context"

	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/models"
)

// Extractor produces page extractions. *extractor.Coordinator satisfies it.
type Extractor interface {
	Extract(ctx context.Context, url string) *models.PageExtraction
}

// Replier answers chat turns. *chat.Orchestrator satisfies it.
type Replier interface {
	Reply(ctx context.Context, turn chat.Turn) chat.Reply
}

// PoolReporter reports browser pool usage. *scraper.Renderer satisfies it.
type PoolReporter interface {
	Stats() models.PoolStats
}
