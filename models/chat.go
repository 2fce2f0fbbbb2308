package models

// ChatRequest is the payload for POST /api/v1/chat.
type ChatRequest struct {
	// Message is the user's question. Required.
	Message string `json:"message" binding:"required"`

	// PageData is a previously extracted page. When absent and URL is set,
	// the page is extracted before answering.
	PageData *PageExtraction `json:"pageData,omitempty"`

	// ExtractedData is the legacy alias of PageData.
	ExtractedData *PageExtraction `json:"extractedData,omitempty"`

	URL            string `json:"url,omitempty" binding:"omitempty,url"`
	Instructions   string `json:"instructions,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	RobotName      string `json:"robotName,omitempty"`
}

// Page returns the page context supplied by the caller, if any.
func (r *ChatRequest) Page() *PageExtraction {
	if r.PageData != nil {
		return r.PageData
	}
	return r.ExtractedData
}

// ChatResponse is the response for POST /api/v1/chat.
type ChatResponse struct {
	Success         bool          `json:"success"`
	Response        string        `json:"response,omitempty"`
	BonusesDetected []string      `json:"bonuses_detected,omitempty"`
	RobotName       string        `json:"robotName,omitempty"`
	Timestamp       string        `json:"timestamp,omitempty"`
	Metadata        *ChatMetadata `json:"metadata,omitempty"`

	Error            string `json:"error,omitempty"`
	Code             string `json:"code,omitempty"`
	FallbackResponse string `json:"fallbackResponse,omitempty"`
}

// ChatMetadata describes the context a reply was generated from.
type ChatMetadata struct {
	HasPageData   bool   `json:"hasPageData"`
	ContentLength int    `json:"contentLength"`
	Method        string `json:"method"`

	// Provider is the name of the provider that produced the reply,
	// or "local" for the rule-based responder.
	Provider string `json:"provider"`
}
