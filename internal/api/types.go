package api

// InitializeRequest configures a new visualizer session. All fields are
// optional; omitted values fall back to server defaults.
type InitializeRequest struct {
	// Seed pins both the model weights and the sampling stream so a
	// session can be replayed exactly.
	Seed *uint64 `json:"seed,omitempty"`
	// Hidden is the scorer's hidden dimension.
	Hidden *int `json:"hidden,omitempty"`
}

type InitializeResponse struct {
	SessionID string `json:"session_id"`
	VocabSize int    `json:"vocab_size"`
}

// GenerateRequest carries one next-token or generate-to-end call. The
// sampling fields are pointers so absent values take the configured
// defaults while present values are validated as given.
type GenerateRequest struct {
	SessionID   string   `json:"session_id"`
	Text        string   `json:"text"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	// MaxTokens bounds generate-to-end runs; ignored by the single-step
	// endpoint.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type DeleteResponse struct {
	SessionID string `json:"session_id"`
	Deleted   bool   `json:"deleted"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
