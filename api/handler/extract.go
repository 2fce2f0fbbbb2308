package handler

import (
	"log/slog"
	"net/http"
	nurl "net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagechat/models"
)

const (
	msgURLRequired   = "URL é obrigatório"
	msgURLInvalid    = "URL inválido"
	msgExtractFailed = "Erro interno ao extrair página"
)

// Extract returns a handler for POST /api/v1/extract.
//
// An extraction that failed end to end is still a successful response: the
// record carries method "failed" and its error.
func Extract(ex Extractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("extract handler panicked", "panic", rec)
				c.JSON(http.StatusInternalServerError, models.ExtractResponse{
					Error: msgExtractFailed,
					Code:  models.ErrCodeInternal,
				})
			}
		}()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil || !isHTTPURL(req.URL) {
			msg := msgURLInvalid
			if strings.TrimSpace(req.URL) == "" {
				msg = msgURLRequired
			}
			c.JSON(http.StatusBadRequest, models.ExtractResponse{
				Error: msg,
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}

		slog.Info("starting extraction", "url", req.URL)
		x := ex.Extract(c.Request.Context(), req.URL)

		data := *x
		if req.Instructions != "" {
			data.CustomInstructions = req.Instructions
		}
		c.JSON(http.StatusOK, models.ExtractResponse{Success: true, Data: &data})
	}
}

func isHTTPURL(raw string) bool {
	u, err := nurl.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
