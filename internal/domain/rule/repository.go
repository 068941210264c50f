package rule

import (
	"context"
)

// Repository defines the interface for import rule data operations
type Repository interface {
	// Create a new rule
	CreateRule(ctx context.Context, r *ImportRule) (*ImportRule, error)

	// Get a rule by source and ID
	GetRule(ctx context.Context, sourceID string, ruleID string) (*ImportRule, error)

	// Replace a stored rule
	UpdateRule(ctx context.Context, r *ImportRule) (*ImportRule, error)

	// List every rule of a source, enabled or not
	ListRules(ctx context.Context, sourceID string) ([]*ImportRule, error)
}

// SourceChecker resolves import sources
type SourceChecker interface {
	SourceExists(ctx context.Context, sourceID string) (bool, error)
}

// AccountChecker resolves ledger accounts
type AccountChecker interface {
	AccountExists(ctx context.Context, accountPath string) (bool, error)
}
