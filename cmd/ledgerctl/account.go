package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hirosato/go-bill-ledger/internal/domain/account"
)

var accountType string
var accountParent string
var accountCurrency string
var accountOpening string
var balanceSubtree bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the account hierarchy",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an account, optionally under a parent and with an opening balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &account.CreateAccountRequest{
			Name:        args[0],
			AccountType: account.AccountType(strings.ToUpper(accountType)),
			ParentPath:  accountParent,
			Currency:    accountCurrency,
		}
		if accountOpening != "" {
			opening, err := decimal.NewFromString(accountOpening)
			if err != nil {
				return fmt.Errorf("invalid --opening %q: %w", accountOpening, err)
			}
			req.OpeningBalance = &opening
		}

		created, err := services.Accounts.CreateAccount(cmd.Context(), req)
		if err != nil {
			return err
		}
		return out.message(created, "created account %s (%s, %s)", created.Path, created.Type, created.Currency)
	},
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance <path>",
	Short: "Show the balance of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			balance *account.BalanceResponse
			err     error
		)
		if balanceSubtree {
			balance, err = services.Accounts.SubtreeBalance(cmd.Context(), args[0])
		} else {
			balance, err = services.Accounts.Balance(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		return out.message(balance, "%s %s %s", balance.Path, balance.Balance.StringFixed(2), balance.Currency)
	},
}

var accountAdjustCmd = &cobra.Command{
	Use:   "adjust <path> <new-balance>",
	Short: "Record the difference to a target balance against Equity:Adjustments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid balance %q: %w", args[1], err)
		}
		tx, err := services.Accounts.AdjustBalance(cmd.Context(), args[0], target)
		if err != nil {
			return err
		}
		if tx == nil {
			return out.message(map[string]string{"path": args[0]}, "%s already at %s", args[0], target)
		}
		return out.message(tx, "recorded adjustment %s", tx.TransactionID)
	},
}

var accountTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the account hierarchy with subtree balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := services.Accounts.GetAccountHierarchy(cmd.Context())
		if err != nil {
			return err
		}
		rows, err := treeRows(cmd.Context(), tree, 0)
		if err != nil {
			return err
		}
		return out.print(tree, []string{"ACCOUNT", "TYPE", "BALANCE", "CURRENCY"}, rows)
	},
}

func treeRows(ctx context.Context, nodes []*account.Node, depth int) ([][]string, error) {
	var rows [][]string
	for _, n := range nodes {
		balance, err := services.Accounts.SubtreeBalance(ctx, n.Account.Path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			strings.Repeat("  ", depth) + n.Account.Name,
			string(n.Account.Type),
			balance.Balance.StringFixed(2),
			n.Account.Currency,
		})
		children, err := treeRows(ctx, n.Children, depth+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, children...)
	}
	return rows, nil
}

func init() {
	accountCreateCmd.Flags().StringVar(&accountType, "type", "", "Account type: assets, liabilities, income, expenses or equity")
	accountCreateCmd.Flags().StringVar(&accountParent, "parent", "", "Parent account path")
	accountCreateCmd.Flags().StringVar(&accountCurrency, "currency", "", "Currency code; defaults to the parent's")
	accountCreateCmd.Flags().StringVar(&accountOpening, "opening", "", "Opening balance")
	accountCreateCmd.MarkFlagRequired("type")

	accountBalanceCmd.Flags().BoolVar(&balanceSubtree, "subtree", false, "Include descendant accounts")

	accountCmd.AddCommand(accountCreateCmd, accountBalanceCmd, accountAdjustCmd, accountTreeCmd)
	rootCmd.AddCommand(accountCmd)
}
