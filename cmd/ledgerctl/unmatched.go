package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hirosato/go-bill-ledger/internal/common/utils"
	"github.com/hirosato/go-bill-ledger/internal/domain/unmatched"
)

var unmatchedSource string
var unmatchedPage int
var unmatchedPageSize int
var suggestLimit int
var classifyTarget string
var classifyMethod string

var unmatchedCmd = &cobra.Command{
	Use:   "unmatched",
	Short: "Work through records no rule could classify",
}

var unmatchedListCmd = &cobra.Command{
	Use:   "list [page]",
	Short: "List parked records, oldest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageNo, err := listPage(args, unmatchedPage)
		if err != nil {
			return err
		}
		page, err := services.Unmatched.ListUnmatched(cmd.Context(), unmatched.Filter{SourceID: unmatchedSource}, pageNo, unmatchedPageSize)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(page.Items)+1)
		for _, item := range page.Items {
			rows = append(rows, []string{
				item.SourceID,
				item.TransactionNo,
				item.TransactionTime.Format("2006-01-02 15:04"),
				item.Record.Type,
				item.Record.Amount,
				truncate(item.Record.Counterparty, 20),
				truncate(item.Record.Description, 24),
			})
		}
		rows = append(rows, []string{fmt.Sprintf("page %d/%d, %d total", page.Page, page.TotalPages, page.Total)})
		return out.print(page, []string{"SOURCE", "NO", "TIME", "TYPE", "AMOUNT", "COUNTERPARTY", "DESCRIPTION"}, rows)
	},
}

var unmatchedRematchCmd = &cobra.Command{
	Use:   "rematch <source-id>",
	Short: "Run parked records through the current rules again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := services.Unmatched.Rematch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return out.message(result, "%d of %d parked records committed, %d still parked, %d failed",
			result.Committed, result.Total, result.Parked, len(result.Failed))
	},
}

var unmatchedSuggestCmd = &cobra.Command{
	Use:   "suggest <source-id> <transaction-no>",
	Short: "Suggest target accounts learned from classified records",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestions, err := services.Unmatched.Suggest(cmd.Context(), args[0], args[1], suggestLimit)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(suggestions))
		for _, s := range suggestions {
			rows = append(rows, []string{s.Account, strconv.FormatFloat(s.Probability, 'f', 3, 64)})
		}
		return out.print(suggestions, []string{"ACCOUNT", "PROBABILITY"}, rows)
	},
}

var unmatchedClassifyCmd = &cobra.Command{
	Use:   "classify <source-id> <transaction-no>",
	Short: "Commit a parked record with explicit accounts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := services.Committer.ClassifyRaw(cmd.Context(), args[0], args[1], classifyTarget, classifyMethod)
		if err != nil {
			return err
		}
		if result.Transaction == nil {
			return out.message(result, "%s was already committed", args[1])
		}
		return out.message(result, "committed %s as %s", args[1], result.Transaction.TransactionID)
	},
}

// listPage takes the page from the positional argument when given, else
// from --page
func listPage(args []string, flagPage int) (int, error) {
	if len(args) == 0 {
		return flagPage, nil
	}
	page, err := utils.ParsePositiveInt(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid page %q: %w", args[0], err)
	}
	return page, nil
}

func init() {
	unmatchedListCmd.Flags().StringVar(&unmatchedSource, "source", "", "Only list records of this source")
	unmatchedListCmd.Flags().IntVar(&unmatchedPage, "page", 1, "Page number")
	unmatchedListCmd.Flags().IntVar(&unmatchedPageSize, "size", unmatched.DefaultPageSize, "Page size")

	unmatchedSuggestCmd.Flags().IntVar(&suggestLimit, "limit", 3, "Maximum number of suggestions")

	unmatchedClassifyCmd.Flags().StringVar(&classifyTarget, "target", "", "Target (category) account")
	unmatchedClassifyCmd.Flags().StringVar(&classifyMethod, "method", "", "Method (payment) account")
	unmatchedClassifyCmd.MarkFlagRequired("target")
	unmatchedClassifyCmd.MarkFlagRequired("method")

	unmatchedCmd.AddCommand(unmatchedListCmd, unmatchedRematchCmd, unmatchedSuggestCmd, unmatchedClassifyCmd)
	rootCmd.AddCommand(unmatchedCmd)
}
