package resources

import (
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

const jsonMimeType = "application/json"

func jsonContent(uri string, data interface{}) (*mcp.ReadResourceResult, error) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      uri,
				MimeType: jsonMimeType,
				Text:     string(body),
			},
		},
	}, nil
}
