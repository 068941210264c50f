package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hirosato/go-bill-ledger/internal/domain/rule"
)

// ruleFlags holds the flag values shared by rule create and rule update
type ruleFlags struct {
	name         string
	priority     int
	disabled     bool
	typeP        string
	category     string
	counterparty string
	description  string
	status       string
	method       string
	minAmount    string
	maxAmount    string
	timeWindow   string
	targetAcct   string
	methodAcct   string
}

func (f *ruleFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Rule name")
	fs.IntVar(&f.priority, "priority", 0, "Evaluation order, lower first")
	fs.BoolVar(&f.disabled, "disabled", false, "Skip the rule during matching")
	fs.StringVar(&f.typeP, "type-pattern", "", "Regex on the record type")
	fs.StringVar(&f.category, "category", "", "Regex on the category")
	fs.StringVar(&f.counterparty, "counterparty", "", "Regex on the counterparty")
	fs.StringVar(&f.description, "description", "", "Regex on the description")
	fs.StringVar(&f.status, "status", "", "Regex on the status")
	fs.StringVar(&f.method, "payment-method", "", "Regex on the payment method")
	fs.StringVar(&f.minAmount, "min", "", "Inclusive lower bound on the absolute amount")
	fs.StringVar(&f.maxAmount, "max", "", "Inclusive upper bound on the absolute amount")
	fs.StringVar(&f.timeWindow, "time", "", "Time of day window HH:MM-HH:MM")
	fs.StringVar(&f.targetAcct, "target", "", "Target (category) account")
	fs.StringVar(&f.methodAcct, "method", "", "Method (payment) account")
}

func parseAmountFlag(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return &d, nil
}

func (f *ruleFlags) createRequest(sourceID string) (*rule.CreateRuleRequest, error) {
	minAmount, err := parseAmountFlag("min", f.minAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parseAmountFlag("max", f.maxAmount)
	if err != nil {
		return nil, err
	}
	enabled := !f.disabled
	return &rule.CreateRuleRequest{
		SourceID:             sourceID,
		Name:                 f.name,
		Priority:             f.priority,
		Enabled:              &enabled,
		TypePattern:          f.typeP,
		CategoryPattern:      f.category,
		CounterpartyPattern:  f.counterparty,
		DescriptionPattern:   f.description,
		StatusPattern:        f.status,
		PaymentMethodPattern: f.method,
		MinAmount:            minAmount,
		MaxAmount:            maxAmount,
		TimePattern:          f.timeWindow,
		TargetAccount:        f.targetAcct,
		MethodAccount:        f.methodAcct,
	}, nil
}

// updateRequest sets only the fields whose flags were given. An empty
// --min or --max clears the bound.
func (f *ruleFlags) updateRequest(fs *pflag.FlagSet) (*rule.UpdateRuleRequest, error) {
	req := &rule.UpdateRuleRequest{}
	str := func(flag string, value string, dst **string) {
		if fs.Changed(flag) {
			v := value
			*dst = &v
		}
	}
	str("name", f.name, &req.Name)
	str("type-pattern", f.typeP, &req.TypePattern)
	str("category", f.category, &req.CategoryPattern)
	str("counterparty", f.counterparty, &req.CounterpartyPattern)
	str("description", f.description, &req.DescriptionPattern)
	str("status", f.status, &req.StatusPattern)
	str("payment-method", f.method, &req.PaymentMethodPattern)
	str("time", f.timeWindow, &req.TimePattern)
	str("target", f.targetAcct, &req.TargetAccount)
	str("method", f.methodAcct, &req.MethodAccount)

	if fs.Changed("priority") {
		p := f.priority
		req.Priority = &p
	}
	if fs.Changed("disabled") {
		enabled := !f.disabled
		req.Enabled = &enabled
	}

	var err error
	if fs.Changed("min") {
		if req.MinAmount, err = parseAmountFlag("min", f.minAmount); err != nil {
			return nil, err
		}
		req.ClearMinAmount = req.MinAmount == nil
	}
	if fs.Changed("max") {
		if req.MaxAmount, err = parseAmountFlag("max", f.maxAmount); err != nil {
			return nil, err
		}
		req.ClearMaxAmount = req.MaxAmount == nil
	}
	return req, nil
}

var createFlags ruleFlags
var updateFlags ruleFlags

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage import rules",
}

var ruleCreateCmd = &cobra.Command{
	Use:   "create <source-id>",
	Short: "Create an import rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := createFlags.createRequest(args[0])
		if err != nil {
			return err
		}
		created, err := services.Rules.CreateRule(cmd.Context(), req)
		if err != nil {
			return err
		}
		return out.message(created, "created rule %s", created.RuleID)
	},
}

var ruleUpdateCmd = &cobra.Command{
	Use:   "update <source-id> <rule-id>",
	Short: "Change the given fields of a rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := updateFlags.updateRequest(cmd.Flags())
		if err != nil {
			return err
		}
		updated, err := services.Rules.UpdateRule(cmd.Context(), args[0], args[1], req)
		if err != nil {
			return err
		}
		return out.message(updated, "updated rule %s", updated.RuleID)
	},
}

var ruleListCmd = &cobra.Command{
	Use:   "list <source-id>",
	Short: "List rules in evaluation order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := services.Rules.ListRules(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(rules))
		for _, r := range rules {
			rows = append(rows, []string{
				strconv.Itoa(r.Priority),
				r.RuleID,
				truncate(r.Name, 24),
				strconv.FormatBool(r.Enabled),
				r.TargetAccount,
				r.MethodAccount,
			})
		}
		return out.print(rules, []string{"PRIORITY", "ID", "NAME", "ENABLED", "TARGET", "METHOD"}, rows)
	},
}

func init() {
	createFlags.register(ruleCreateCmd.Flags())
	updateFlags.register(ruleUpdateCmd.Flags())

	ruleCmd.AddCommand(ruleCreateCmd, ruleUpdateCmd, ruleListCmd)
	rootCmd.AddCommand(ruleCmd)
}
