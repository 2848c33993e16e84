package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/mkarlsen/stratagem/pkg/dataflows"
)

// promptForSymbols asks for one or more ticker symbols, comma or space
// separated, and validates each against the usual ticker format.
func promptForSymbols() ([]string, error) {
	var raw string
	prompt := &survey.Input{
		Message: "Symbols to watch (comma separated):",
		Help:    "Example: AAPL, MSFT, TSLA",
	}

	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		symbols := splitSymbols(str)
		if len(symbols) == 0 {
			return fmt.Errorf("enter at least one symbol")
		}
		for _, symbol := range symbols {
			if err := dataflows.ValidateSymbol(symbol); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return splitSymbols(raw), nil
}

// splitSymbols breaks free-form symbol input into normalized tickers.
func splitSymbols(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, field := range fields {
		symbol := dataflows.NormalizeSymbol(field)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
