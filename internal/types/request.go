package types

import "time"

// Request is the canonical representation of one inference call. The model is
// chosen by the router, so callers leave Model empty.
type Request struct {
	RequestID string    `json:"request_id,omitempty"`
	Model     string    `json:"model,omitempty"`
	Messages  []Message `json:"messages"`
	TopP      *float64  `json:"top_p,omitempty"`
	Stop      []string  `json:"stop,omitempty"`
	User      string    `json:"user,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}
