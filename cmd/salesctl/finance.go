package main

import (
	"encoding/json"
	"fmt"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/spf13/cobra"
)

func newFinanceCmd(c *cli) *cobra.Command {
	var (
		in         domain.FinancingInput
		rate       float64
		maxMonthly float64
		options    bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Compute a fixed-rate financing plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calc := finance.New(finance.WithAnnualRate(rate))
			if options {
				plans, err := calc.Options(in.Price, maxMonthly)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, finance.FormatOptions(plans))
				return nil
			}
			plan, err := calc.Compute(in)
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(plan.Rounded(), "", "  ")
				fmt.Fprintln(c.out, string(b))
				return nil
			}
			fmt.Fprintln(c.out, finance.Format(plan))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&in.Price, "price", "p", 0, "Vehicle price")
	cmd.Flags().Float64VarP(&in.DownPayment, "down", "d", 0, "Down payment")
	cmd.Flags().IntVarP(&in.TermYears, "years", "y", 0, "Term in years (3-6)")
	cmd.Flags().Float64Var(&rate, "rate", domain.DefaultAnnualRate, "Annual interest rate")
	cmd.Flags().Float64Var(&maxMonthly, "max-monthly", 0, "Monthly budget for --options")
	cmd.Flags().BoolVar(&options, "options", false, "List plans for every down payment share and term")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the rounded plan as JSON")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}
