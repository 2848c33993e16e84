package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkarlsen/stratagem/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	sectionStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// printWelcome displays the welcome banner and usage hints.
func printWelcome() {
	rule := mutedStyle.Render(strings.Repeat("=", 70))

	fmt.Println()
	fmt.Println(rule)
	fmt.Println(titleStyle.Render("🚀 AI INVESTMENT RESEARCH ASSISTANT"))
	fmt.Println(rule)
	fmt.Println("Welcome to your personal investment research assistant!")
	fmt.Println()
	fmt.Println("I can help you with:")
	fmt.Println("• Stock analysis and research")
	fmt.Println("• Technical analysis and trading signals")
	fmt.Println("• Strategy backtesting and performance analysis")
	fmt.Println("• Comparative analysis between stocks")
	fmt.Println("• Chart data exports and visualization")
	fmt.Println("• Markdown research reports")
	fmt.Println()
	fmt.Println("Example queries:")
	fmt.Println("- 'Analyze AAPL stock'")
	fmt.Println("- 'Compare AAPL vs MSFT'")
	fmt.Println("- 'Show me technical analysis for TSLA'")
	fmt.Println("- 'Backtest a strategy for GOOGL'")
	fmt.Println("- 'Create a report for my recent analysis'")
	fmt.Println()
	fmt.Println("Type 'help' for more commands, 'quit' to exit")
	fmt.Println(rule)
	fmt.Println()
}

// printHelp displays the command reference.
func printHelp() {
	rule := mutedStyle.Render(strings.Repeat("=", 50))

	fmt.Println()
	fmt.Println(sectionStyle.Render("📋 AVAILABLE COMMANDS:"))
	fmt.Println(rule)
	fmt.Println("🔍 ANALYSIS QUERIES:")
	fmt.Println("  analyze <SYMBOL>      - Comprehensive stock analysis")
	fmt.Println("  technical <SYMBOL>    - Technical analysis only")
	fmt.Println("  compare <SYM1> <SYM2> - Compare two stocks")
	fmt.Println("  backtest <SYMBOL>     - Backtest a trading strategy")
	fmt.Println()
	fmt.Println("📊 VISUALIZATION QUERIES:")
	fmt.Println("  chart <SYMBOL>        - Generate stock charts")
	fmt.Println("  report                - Generate a markdown report")
	fmt.Println()
	fmt.Println("⚙️ UTILITY COMMANDS:")
	fmt.Println("  status                - Show session status")
	fmt.Println("  history               - Show analysis history")
	fmt.Println("  tools                 - List available tools")
	fmt.Println("  clear                 - Clear session memory")
	fmt.Println("  help                  - Show this help message")
	fmt.Println("  quit/exit             - Exit the application")
	fmt.Println(rule)
	fmt.Println()
}

// printTools lists registered tools grouped the way users think about
// them rather than by exact task kind.
func (a *App) printTools() {
	groups := []struct {
		title string
		kinds []models.TaskKind
	}{
		{"📥 Data Sources", []models.TaskKind{models.KindFetch}},
		{"🔬 Analysis Tools", []models.TaskKind{models.KindAnalyze, models.KindCompare}},
		{"📊 Output Tools", []models.TaskKind{models.KindVisualize, models.KindReport}},
	}

	rule := mutedStyle.Render(strings.Repeat("=", 40))
	fmt.Println()
	fmt.Println(sectionStyle.Render("🛠️ AVAILABLE TOOLS:"))
	fmt.Println(rule)
	for _, group := range groups {
		var names []string
		for _, kind := range group.kinds {
			for _, tool := range a.registry.ByKind(kind) {
				names = append(names, tool.Name())
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Printf("\n%s:\n", group.title)
		for _, name := range names {
			fmt.Printf("  • %s\n", name)
		}
	}
	fmt.Println(rule)
	fmt.Println()
}

// displayError prints an error in the shared error style.
func displayError(err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("❌ %v", err)))
}
