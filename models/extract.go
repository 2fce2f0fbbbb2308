package models

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the target page to extract. Required.
	URL string `json:"url" binding:"required,url"`

	// Instructions are free-text behavioural instructions. They are echoed
	// back on the extraction record and otherwise ignored here.
	Instructions string `json:"instructions,omitempty"`
}

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	Success bool            `json:"success"`
	Data    *PageExtraction `json:"data,omitempty"`

	// Error is a user-facing message, populated only when Success is false.
	Error string `json:"error,omitempty"`

	// Code is the machine-readable error code paired with Error.
	Code string `json:"code,omitempty"`
}
