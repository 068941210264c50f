package source

import (
	"time"
)

// ImportSource identifies where import records come from (a provider
// export such as a WeChat or Alipay bill). Rules and raw transactions are
// scoped to one source.
type ImportSource struct {
	SourceID  string    `json:"sourceId"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateSourceRequest represents the request to register an import source
type CreateSourceRequest struct {
	// SourceID is optional; a UUID is generated when empty
	SourceID string `json:"sourceId,omitempty"`
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
}
