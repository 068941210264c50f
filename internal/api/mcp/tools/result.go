package tools

import (
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
)

// jsonResult formats a successful tool response with an indented JSON body
func jsonResult(summary string, data interface{}) (*mcp.CallToolResult, error) {
	responseData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(summary+" but the response could not be formatted", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.ToolResultContent{
			{
				Type: "text",
				Text: fmt.Sprintf("%s:\n%s", summary, string(responseData)),
			},
		},
		IsError: false,
	}, nil
}

// errorResult reports a failure inside the tool result. Application errors
// carry their code so clients can tell NOT_FOUND from VALIDATION_ERROR.
func errorResult(prefix string, err error) *mcp.CallToolResult {
	text := fmt.Sprintf("%s: %v", prefix, err)
	if code := errors.CodeOf(err); code != "" {
		text = fmt.Sprintf("%s [%s]: %v", prefix, code, err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.ToolResultContent{
			{
				Type: "text",
				Text: text,
			},
		},
		IsError: true,
	}
}

// parseArgs decodes tool arguments, reporting malformed input as a tool error
func parseArgs(arguments json.RawMessage, args interface{}) *mcp.CallToolResult {
	if len(arguments) == 0 {
		arguments = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(arguments, args); err != nil {
		return errorResult("Error parsing arguments", err)
	}
	return nil
}

// arg pairs a schema property name with the value decoded for it
type arg struct {
	name  string
	value string
}

// requireArgs reports the first blank required argument
func requireArgs(args ...arg) *mcp.CallToolResult {
	for _, a := range args {
		if err := utils.ValidateRequiredString(a.value, a.name); err != nil {
			return errorResult("Invalid arguments", err)
		}
	}
	return nil
}

func stringProp(description string) map[string]string {
	return map[string]string{
		"type":        "string",
		"description": description,
	}
}

// recordSchema describes one normalized import record
var recordSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"transactionNo":       stringProp("Provider transaction number, the dedup key within a source"),
		"transactionTime":     stringProp("Transaction time in RFC 3339 format"),
		"type":                stringProp("Record type label such as 支出, 收入 or 不计收支"),
		"amount":              stringProp("Amount as printed by the provider, e.g. ¥1,234.56"),
		"category":            stringProp("Provider category"),
		"counterparty":        stringProp("Counterparty name"),
		"counterpartyAccount": stringProp("Counterparty account"),
		"description":         stringProp("Goods or description"),
		"paymentMethod":       stringProp("Payment method label"),
		"status":              stringProp("Provider status"),
		"merchantOrderNo":     stringProp("Merchant order number"),
		"remarks":             stringProp("Remarks"),
		"providerTag":         stringProp("Provider tag, copied to the transaction tags"),
	},
	"required": []string{"transactionNo", "type", "amount"},
}
