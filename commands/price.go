package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tourbook/currency"
)

func priceCmd() *cobra.Command {
	var (
		lang     string
		code     string
		locale   string
		rateArgs []string
	)

	cmd := &cobra.Command{
		Use:   "price AMOUNT",
		Short: "Format a base-currency amount for display",
		Example: `  tourbook price 250000 --lang ja --rate JPY=100
  tourbook price 250000 --currency USD --locale en-US --rate USD=15000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			rates, err := parseRates(rateArgs)
			if err != nil {
				return err
			}

			d := cfg.Display.Table().Resolve(lang)
			if code != "" {
				d.Currency = code
			}
			if locale != "" {
				d.Locale = locale
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg.Display.Formatter().Format(amount, d.Currency, rates, d.Locale))
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "UI language whose display currency and locale are used")
	cmd.Flags().StringVar(&code, "currency", "", "target currency code, overrides --lang")
	cmd.Flags().StringVar(&locale, "locale", "", "formatting locale, overrides --lang")
	cmd.Flags().StringSliceVar(&rateArgs, "rate", nil, "fx rate as CODE=units of base per unit, repeatable")
	return cmd
}

func parseRates(args []string) ([]currency.FxRate, error) {
	rates := make([]currency.FxRate, 0, len(args))
	for _, arg := range args {
		code, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("rate %q: want CODE=rate", arg)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			return nil, fmt.Errorf("rate %q: want a positive number", arg)
		}
		rates = append(rates, currency.FxRate{Currency: strings.ToUpper(strings.TrimSpace(code)), Rate: rate})
	}
	return rates, nil
}
