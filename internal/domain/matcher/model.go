package matcher

import (
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

// Result is the classification of one record. Target and method slots may
// come from different rules; ContributingRules lists every rule that filled
// a slot, in evaluation order.
type Result struct {
	TargetAccount     string   `json:"targetAccount,omitempty"`
	MethodAccount     string   `json:"methodAccount,omitempty"`
	TargetRuleID      string   `json:"targetRuleId,omitempty"`
	MethodRuleID      string   `json:"methodRuleId,omitempty"`
	ContributingRules []string `json:"contributingRules"`
}

// Complete reports whether both account slots are resolved
func (r Result) Complete() bool {
	return r.TargetAccount != "" && r.MethodAccount != ""
}

// MatchedRecord pairs a record with its classification
type MatchedRecord struct {
	Record importer.ImportRecord `json:"record"`
	Result Result                `json:"result"`
}

// BatchMatch partitions a batch by whether both slots were resolved
type BatchMatch struct {
	SourceID  string          `json:"sourceId"`
	Matched   []MatchedRecord `json:"matched"`
	Unmatched []MatchedRecord `json:"unmatched"`
}

// All returns matched and unmatched records together
func (b *BatchMatch) All() []MatchedRecord {
	all := make([]MatchedRecord, 0, len(b.Matched)+len(b.Unmatched))
	all = append(all, b.Matched...)
	return append(all, b.Unmatched...)
}
