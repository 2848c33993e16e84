package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// RunInteractive starts the prompt loop and blocks until the user quits
// or input ends.
func (a *App) RunInteractive(ctx context.Context) error {
	printWelcome()
	reader := bufio.NewReader(os.Stdin)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Print("💬 Ask me anything about investments: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println("\n👋 Goodbye!")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Println("\n👋 Thank you for using the investment research assistant!")
			return nil
		}

		if response, handled := a.handleCommand(input); handled {
			if response != "" {
				fmt.Println(response)
			}
			continue
		}

		response, err := a.ProcessQuery(ctx, input)
		if err != nil {
			fmt.Printf("\n❌ Error processing query: %v\n\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", response)
	}
}

// handleCommand intercepts utility commands. The second return is false
// when the input should go through the query pipeline instead.
func (a *App) handleCommand(input string) (string, bool) {
	switch strings.ToLower(input) {
	case "help", "h":
		printHelp()
		return "", true
	case "tools":
		a.printTools()
		return "", true
	case "status":
		return a.statusResponse(), true
	case "history":
		return a.historyResponse(), true
	case "clear":
		a.memory.Clear()
		return "\n🧹 Session memory cleared.", true
	}
	return "", false
}

func (a *App) statusResponse() string {
	summary := a.memory.Summary()
	lines := []string{
		"",
		sectionStyle.Render("📊 SESSION STATUS:"),
		fmt.Sprintf("   • Session duration: %.0f seconds", time.Since(summary.StartedAt).Seconds()),
		fmt.Sprintf("   • Interactions: %d", summary.Interactions),
		fmt.Sprintf("   • Symbols analyzed: %d", len(summary.Symbols)),
		fmt.Sprintf("   • Stored results: %d", summary.StoredResults),
	}
	if recent := a.memory.RecentSymbols(5); len(recent) > 0 {
		lines = append(lines, "   • Recent symbols: "+strings.Join(recent, ", "))
	}
	return strings.Join(lines, "\n")
}

func (a *App) historyResponse() string {
	entries := a.memory.History(5)
	if len(entries) == 0 {
		return "\n📝 No analysis history yet."
	}
	lines := []string{"", sectionStyle.Render("📝 RECENT ANALYSIS HISTORY:")}
	for i, entry := range entries {
		lines = append(lines, fmt.Sprintf("   %d. %s", i+1, truncate(entry.Input, 50)))
		if len(entry.ToolsUsed) > 0 {
			lines = append(lines, "      Tools: "+strings.Join(entry.ToolsUsed, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
