package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagechat/chat"
	"github.com/use-agent/pagechat/models"
	"github.com/use-agent/pagechat/textutil"
)

const (
	msgMessageRequired = "Mensagem é obrigatória"
	msgChatFailed      = "Erro interno ao gerar resposta"
	msgChatFallback    = "Desculpe, estou com dificuldades técnicas no momento. Pode tentar novamente em alguns instantes?"

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ChatOptions holds the chat handler settings that are not dependencies.
type ChatOptions struct {
	DefaultRobotName string
	Now              func() time.Time
}

// Chat returns a handler for POST /api/v1/chat.
//
// Flow:
//  1. Validate the message and record the conversation as active.
//  2. Use the supplied page, or extract req.URL when none was supplied.
//  3. Ask the orchestrator and shape the response.
func Chat(ex Extractor, rp Replier, active *ActiveChats, opts ChatOptions) gin.HandlerFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("chat handler panicked", "panic", rec)
				c.JSON(http.StatusInternalServerError, models.ChatResponse{
					Error:            msgChatFailed,
					Code:             models.ErrCodeInternal,
					FallbackResponse: msgChatFallback,
				})
			}
		}()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			msg := msgMessageRequired
			if req.Message != "" {
				msg = msgURLInvalid
			}
			c.JSON(http.StatusBadRequest, models.ChatResponse{
				Error: msg,
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}
		if active != nil {
			active.Touch(req.ConversationID)
		}

		// ── 2. Page context ─────────────────────────────────────────
		page := req.Page()
		if page == nil && req.URL != "" {
			page = ex.Extract(c.Request.Context(), req.URL)
		}

		// ── 3. Reply ────────────────────────────────────────────────
		reply := rp.Reply(c.Request.Context(), chat.Turn{
			Message:      req.Message,
			Page:         page,
			Instructions: req.Instructions,
		})

		robot := req.RobotName
		if robot == "" {
			robot = opts.DefaultRobotName
		}

		meta := &models.ChatMetadata{Method: "none", Provider: reply.Provider}
		bonuses := []string{}
		if page != nil {
			meta.HasPageData = true
			meta.ContentLength = textutil.RuneLen(page.CleanText)
			if page.Method != "" {
				meta.Method = page.Method
			}
			if page.BonusesDetected != nil {
				bonuses = page.BonusesDetected
			}
		}

		c.JSON(http.StatusOK, models.ChatResponse{
			Success:         true,
			Response:        reply.Text,
			BonusesDetected: bonuses,
			RobotName:       robot,
			Timestamp:       opts.Now().UTC().Format(timestampLayout),
			Metadata:        meta,
		})
	}
}
