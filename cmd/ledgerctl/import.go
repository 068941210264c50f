package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hirosato/go-bill-ledger/internal/domain/committer"
	"github.com/hirosato/go-bill-ledger/internal/domain/importer"
)

var reviewOnly bool
var batchSize int
var batchesPerSecond float64

var importCmd = &cobra.Command{
	Use:   "import <source-id> <records.jsonl|->",
	Short: "Classify and commit normalized export records",
	Long: `Reads import records as JSON lines or a JSON array and commits them to the
ledger. Records no rule fully classifies are parked in the unmatched queue.
With --review nothing is written and the classification is printed instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceID := args[0]
		records, err := readRecordsFile(args[1])
		if err != nil {
			return err
		}

		if reviewOnly {
			batch, err := services.Matcher.MatchTransactions(cmd.Context(), records, sourceID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, mr := range batch.All() {
				rows = append(rows, []string{
					mr.Record.Key(),
					mr.Record.Amount,
					truncate(mr.Record.Counterparty, 20),
					orDash(mr.Result.TargetAccount),
					orDash(mr.Result.MethodAccount),
				})
			}
			return out.print(batch, []string{"NO", "AMOUNT", "COUNTERPARTY", "TARGET", "METHOD"}, rows)
		}

		limiter := rate.NewLimiter(rate.Inf, 1)
		if batchesPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(batchesPerSecond), 1)
		}
		total, err := importBatches(cmd.Context(), sourceID, records, batchSize, limiter, services.Committer.ImportRecords)
		if err != nil {
			return err
		}

		for _, f := range total.Failed {
			logger.Warn("record failed", "transactionNo", f.TransactionNo, "code", f.Code, "reason", f.Reason)
		}
		return out.message(total, "%d records: %d committed, %d duplicates, %d parked, %d failed",
			total.Total, total.Committed, total.Duplicates, total.Parked, len(total.Failed))
	},
}

type importFunc func(ctx context.Context, sourceID string, records []importer.ImportRecord) (*committer.BatchResult, error)

// importBatches commits records in chunks of size, waiting on limiter
// before each chunk, and sums the per-chunk results
func importBatches(ctx context.Context, sourceID string, records []importer.ImportRecord, size int, limiter *rate.Limiter, commit importFunc) (*committer.BatchResult, error) {
	if size <= 0 {
		size = len(records)
	}
	total := &committer.BatchResult{
		SourceID:       sourceID,
		Failed:         make([]committer.FailedRecord, 0),
		TransactionIDs: make([]string, 0),
	}

	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := commit(ctx, sourceID, records[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch starting at record %d: %w", start+1, err)
		}
		total.Total += res.Total
		total.Committed += res.Committed
		total.Duplicates += res.Duplicates
		total.Parked += res.Parked
		total.Failed = append(total.Failed, res.Failed...)
		total.TransactionIDs = append(total.TransactionIDs, res.TransactionIDs...)
	}
	return total, nil
}

func readRecordsFile(path string) ([]importer.ImportRecord, error) {
	if path == "-" {
		return readRecords(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRecords(f)
}

// readRecords accepts a JSON array of records or a stream of JSON objects,
// one per line
func readRecords(r io.Reader) ([]importer.ImportRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []importer.ImportRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []importer.ImportRecord
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("invalid record array: %w", err)
		}
		return records, nil
	}

	records := make([]importer.ImportRecord, 0)
	for {
		var record importer.ImportRecord
		err := dec.Decode(&record)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	importCmd.Flags().BoolVar(&reviewOnly, "review", false, "Only classify and print; write nothing")
	importCmd.Flags().IntVar(&batchSize, "batch", 100, "Records committed per batch")
	importCmd.Flags().Float64Var(&batchesPerSecond, "rate", 0, "Maximum batches per second; 0 means unlimited")

	rootCmd.AddCommand(importCmd)
}
