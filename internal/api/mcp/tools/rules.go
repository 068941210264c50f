package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/go-bill-ledger/internal/domain/mcp"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

func ruleProperties() map[string]interface{} {
	return map[string]interface{}{
		"name": stringProp("Human readable rule name"),
		"priority": map[string]interface{}{
			"type":        "integer",
			"description": "Evaluation order, lower first; ties go to the older rule",
		},
		"enabled": map[string]interface{}{
			"type":        "boolean",
			"description": "Disabled rules are skipped",
		},
		"typePattern":          stringProp("Regex on the record type"),
		"categoryPattern":      stringProp("Regex on the category"),
		"counterpartyPattern":  stringProp("Regex on the counterparty"),
		"descriptionPattern":   stringProp("Regex on the description"),
		"statusPattern":        stringProp("Regex on the status"),
		"paymentMethodPattern": stringProp("Regex on the payment method"),
		"minAmount":            stringProp("Inclusive lower bound on the absolute amount"),
		"maxAmount":            stringProp("Inclusive upper bound on the absolute amount"),
		"timePattern":          stringProp("Time of day window HH:MM-HH:MM, may wrap midnight"),
		"targetAccount":        stringProp("Category account the rule assigns"),
		"methodAccount":        stringProp("Payment method account the rule assigns"),
	}
}

// CreateRuleTool adds a classification rule to a source
type CreateRuleTool struct {
	ruleService *rule.Service
}

func NewCreateRuleTool(ruleService *rule.Service) *CreateRuleTool {
	return &CreateRuleTool{
		ruleService: ruleService,
	}
}

func (t *CreateRuleTool) GetName() string {
	return "create-rule"
}

func (t *CreateRuleTool) GetDescription() string {
	return "Creates an import rule. Empty patterns match anything; a rule fills the target and/or method account of records it matches."
}

func (t *CreateRuleTool) GetInputSchema() mcp.JSONSchema {
	props := ruleProperties()
	props["sourceId"] = stringProp("Import source the rule belongs to")
	return mcp.JSONSchema{
		Type:       "object",
		Properties: props,
		Required:   []string{"sourceId", "priority"},
	}
}

func (t *CreateRuleTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args rule.CreateRuleRequest
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	created, err := t.ruleService.CreateRule(ctx, &args)
	if err != nil {
		return errorResult("Error creating rule", err), nil
	}
	return jsonResult("Rule created", created)
}

// UpdateRuleTool changes fields of a rule
type UpdateRuleTool struct {
	ruleService *rule.Service
}

func NewUpdateRuleTool(ruleService *rule.Service) *UpdateRuleTool {
	return &UpdateRuleTool{
		ruleService: ruleService,
	}
}

func (t *UpdateRuleTool) GetName() string {
	return "update-rule"
}

func (t *UpdateRuleTool) GetDescription() string {
	return "Updates the given fields of an import rule; omitted fields keep their value"
}

func (t *UpdateRuleTool) GetInputSchema() mcp.JSONSchema {
	props := ruleProperties()
	props["sourceId"] = stringProp("Import source the rule belongs to")
	props["ruleId"] = stringProp("Rule to update")
	props["clearMinAmount"] = map[string]interface{}{"type": "boolean", "description": "Remove the lower bound"}
	props["clearMaxAmount"] = map[string]interface{}{"type": "boolean", "description": "Remove the upper bound"}
	return mcp.JSONSchema{
		Type:       "object",
		Properties: props,
		Required:   []string{"sourceId", "ruleId"},
	}
}

func (t *UpdateRuleTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID string `json:"sourceId"`
		RuleID   string `json:"ruleId"`
		rule.UpdateRuleRequest
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}
	if res := requireArgs(arg{"sourceId", args.SourceID}, arg{"ruleId", args.RuleID}); res != nil {
		return res, nil
	}

	updated, err := t.ruleService.UpdateRule(ctx, args.SourceID, args.RuleID, &args.UpdateRuleRequest)
	if err != nil {
		return errorResult("Error updating rule", err), nil
	}
	return jsonResult("Rule updated", updated)
}

// ListRulesTool lists the rules of a source in evaluation order
type ListRulesTool struct {
	ruleService *rule.Service
}

func NewListRulesTool(ruleService *rule.Service) *ListRulesTool {
	return &ListRulesTool{
		ruleService: ruleService,
	}
}

func (t *ListRulesTool) GetName() string {
	return "list-rules"
}

func (t *ListRulesTool) GetDescription() string {
	return "Lists the import rules of a source in the order they are evaluated"
}

func (t *ListRulesTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"sourceId": stringProp("Import source"),
		},
		Required: []string{"sourceId"},
	}
}

func (t *ListRulesTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		SourceID string `json:"sourceId"`
	}
	if res := parseArgs(arguments, &args); res != nil {
		return res, nil
	}

	rules, err := t.ruleService.ListRules(ctx, args.SourceID)
	if err != nil {
		return errorResult("Error listing rules", err), nil
	}
	return jsonResult(fmt.Sprintf("%d rules", len(rules)), rules)
}
