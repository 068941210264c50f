package main

import (
	"github.com/spf13/cobra"

	"github.com/hirosato/go-bill-ledger/internal/domain/source"
)

var sourceName string
var sourceProvider string

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage import sources",
}

var sourceCreateCmd = &cobra.Command{
	Use:   "create [source-id]",
	Short: "Register an import source; the ID is generated when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &source.CreateSourceRequest{Name: sourceName, Provider: sourceProvider}
		if len(args) == 1 {
			req.SourceID = args[0]
		}
		created, err := services.Sources.CreateSource(cmd.Context(), req)
		if err != nil {
			return err
		}
		return out.message(created, "created import source %s", created.SourceID)
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := services.Sources.ListSources(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(sources))
		for _, s := range sources {
			rows = append(rows, []string{s.SourceID, s.Name, s.Provider, s.CreatedAt.Format("2006-01-02")})
		}
		return out.print(sources, []string{"ID", "NAME", "PROVIDER", "CREATED"}, rows)
	},
}

func init() {
	sourceCreateCmd.Flags().StringVar(&sourceName, "name", "", "Display name")
	sourceCreateCmd.Flags().StringVar(&sourceProvider, "provider", "", "Provider label, e.g. wechat or alipay")
	sourceCreateCmd.MarkFlagRequired("name")

	sourceCmd.AddCommand(sourceCreateCmd, sourceListCmd)
	rootCmd.AddCommand(sourceCmd)
}
