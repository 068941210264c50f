// Package app builds the storage backend selected by configuration and
// wires the ledger services on top of it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hirosato/go-bill-ledger/internal/common/config"
	"github.com/hirosato/go-bill-ledger/internal/domain/account"
	"github.com/hirosato/go-bill-ledger/internal/domain/committer"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
	"github.com/hirosato/go-bill-ledger/internal/domain/ledger"
	"github.com/hirosato/go-bill-ledger/internal/domain/matcher"
	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
	"github.com/hirosato/go-bill-ledger/internal/domain/source"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
	dynamoClient "github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/client"
	dynamodbRepository "github.com/hirosato/go-bill-ledger/internal/platform/dynamodb/repository"
	"github.com/hirosato/go-bill-ledger/internal/platform/memory"
	"github.com/hirosato/go-bill-ledger/internal/platform/mysql"
	"github.com/hirosato/go-bill-ledger/internal/platform/secrets"
)

// Repositories groups the storage ports of one backend
type Repositories struct {
	Sources  source.Repository
	Rules    rule.Repository
	Raws     importer.Repository
	Ledger   ledger.Repository
	Accounts account.Repository

	close func() error
}

// Close releases the backend's resources
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// store is a backend implementing every repository in one type
type store interface {
	source.Repository
	rule.Repository
	importer.Repository
	ledger.Repository
	account.Repository
	Close() error
}

// FromStore exposes a single-type backend as Repositories
func FromStore(s store) *Repositories {
	return &Repositories{
		Sources:  s,
		Rules:    s,
		Raws:     s,
		Ledger:   s,
		Accounts: s,
		close:    s.Close,
	}
}

// OpenRepositories connects to the configured backend
func OpenRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Repositories, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamoClient.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DynamoDB client: %w", err)
		}
		f := dynamodbRepository.NewFactory(client, cfg.DynamoDBTableName, logger)
		return &Repositories{
			Sources:  f.SourceRepository(),
			Rules:    f.RuleRepository(),
			Raws:     f.RawRepository(),
			Ledger:   f.LedgerRepository(),
			Accounts: f.AccountRepository(),
		}, nil

	case config.BackendMySQL:
		dsn := cfg.MySQLDSN
		if cfg.MySQLDSNSecretID != "" {
			resolver, err := secrets.NewDSNResolver(ctx, cfg.AWSRegion, logger)
			if err != nil {
				return nil, err
			}
			if dsn, err = resolver.ResolveDSN(ctx, cfg.MySQLDSNSecretID); err != nil {
				return nil, err
			}
		}
		s, err := mysql.Open(ctx, dsn, logger)
		if err != nil {
			return nil, err
		}
		return FromStore(s), nil

	case config.BackendMemory:
		return FromStore(memory.NewStore()), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Services holds every ledger service wired to one set of repositories
type Services struct {
	Sources   *source.Service
	Rules     *rule.Service
	Ledger    *ledger.Service
	Accounts  *account.Service
	Matcher   *matcher.Service
	Committer *committer.Service
	Unmatched *unmatched.Service
}

// NewServices wires the services
func NewServices(repos *Repositories, defaultCurrency string, logger *slog.Logger) *Services {
	ledgerService := ledger.NewService(repos.Ledger, account.NewCurrencyLookup(repos.Accounts), logger)
	accountService := account.NewService(repos.Accounts, ledgerService, defaultCurrency, logger)
	sourceService := source.NewService(repos.Sources)
	ruleService := rule.NewService(repos.Rules, repos.Sources, repos.Accounts)
	matcherService := matcher.NewService(ruleService, logger)
	committerService := committer.NewService(repos.Raws, ledgerService, accountService, repos.Sources, matcherService, logger)
	unmatchedService := unmatched.NewService(repos.Raws, matcherService, committerService, logger)

	return &Services{
		Sources:   sourceService,
		Rules:     ruleService,
		Ledger:    ledgerService,
		Accounts:  accountService,
		Matcher:   matcherService,
		Committer: committerService,
		Unmatched: unmatchedService,
	}
}
