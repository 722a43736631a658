package output

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/ccboard/ccboard/internal/api"
	"github.com/ccboard/ccboard/internal/model"
)

const (
	compactThreshold = 100 // Terminal width below which compact mode kicks in
	defaultWidth     = 120
)

// TableOptions controls table display behavior
type TableOptions struct {
	ForceCompact bool
}

// shouldUseCompact determines if compact mode should be used
func shouldUseCompact(opts TableOptions) bool {
	if opts.ForceCompact {
		return true
	}
	return getTerminalWidth() < compactThreshold
}

// FormatNumber formats a number with thousand separators
func FormatNumber(n int64) string {
	if n == 0 {
		return "0"
	}

	str := fmt.Sprintf("%d", n)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}

	if negative {
		return "-" + result
	}
	return result
}

// FormatCost formats a cost value as currency
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.2f", cost)
}

// shortenModelName converts full model names to short form
// claude-sonnet-4-5-20250929 -> sonnet-4-5
// claude-opus-4-20250514 -> opus-4
func shortenModelName(name string) string {
	// Pattern: claude-{type}-{version}-{date}
	re := regexp.MustCompile(`^claude-(\w+)-([\d-]+)-(\d{8})$`)
	if matches := re.FindStringSubmatch(name); matches != nil {
		return fmt.Sprintf("%s-%s", matches[1], matches[2])
	}

	// Pattern without date: claude-{type}-{version}
	re2 := regexp.MustCompile(`^claude-(\w+)-([\d-]+)$`)
	if matches := re2.FindStringSubmatch(name); matches != nil {
		return fmt.Sprintf("%s-%s", matches[1], matches[2])
	}

	// Pattern: anthropic/claude-{type}-{version}
	re3 := regexp.MustCompile(`^anthropic/claude-(\w+)-([\d.]+)$`)
	if matches := re3.FindStringSubmatch(name); matches != nil {
		return fmt.Sprintf("%s-%s", matches[1], matches[2])
	}

	return name
}

// PrintDailyReport prints per-day aggregates as a formatted table with a
// model breakdown underneath.
func PrintDailyReport(days []model.DailyAggregate, opts TableOptions) {
	if len(days) == 0 {
		fmt.Println("No usage data found.")
		return
	}

	compact := shouldUseCompact(opts)
	keyWidth := 10 // YYYY-MM-DD

	fmt.Println()

	if compact {
		// Compact: Date, Requests, Cost
		fmt.Printf("%-*s  %10s  %10s\n", keyWidth, "Date", "Requests", "Cost")
		fmt.Println(strings.Repeat("─", keyWidth+2+10+2+10))

		for _, d := range days {
			fmt.Printf("%-*s  %10s  %10s\n",
				keyWidth, d.Date,
				FormatNumber(int64(d.RecordCount)),
				FormatCost(d.Cost))
		}
	} else {
		// Full: Date, Input, Output, Cache Create, Cache Read, Requests, Cost
		fmt.Printf("%-*s  %12s  %12s  %14s  %14s  %10s  %10s\n",
			keyWidth, "Date", "Input", "Output", "Cache Create", "Cache Read", "Requests", "Cost")
		fmt.Println(strings.Repeat("─", keyWidth+2+12+2+12+2+14+2+14+2+10+2+10))

		for _, d := range days {
			fmt.Printf("%-*s  %12s  %12s  %14s  %14s  %10s  %10s\n",
				keyWidth, d.Date,
				FormatNumber(d.Usage.InputTokens),
				FormatNumber(d.Usage.OutputTokens),
				FormatNumber(d.Usage.CacheCreationInputTokens),
				FormatNumber(d.Usage.CacheReadInputTokens),
				FormatNumber(int64(d.RecordCount)),
				FormatCost(d.Cost))
		}
	}

	if len(days) > 1 {
		var total model.TokenUsage
		var totalCost float64
		var totalRequests int64
		for _, d := range days {
			total.Add(d.Usage)
			totalCost += d.Cost
			totalRequests += int64(d.RecordCount)
		}

		if compact {
			fmt.Println(strings.Repeat("─", keyWidth+2+10+2+10))
			fmt.Printf("%-*s  %10s  %10s\n",
				keyWidth, "Total", FormatNumber(totalRequests), FormatCost(totalCost))
		} else {
			fmt.Println(strings.Repeat("─", keyWidth+2+12+2+12+2+14+2+14+2+10+2+10))
			fmt.Printf("%-*s  %12s  %12s  %14s  %14s  %10s  %10s\n",
				keyWidth, "Total",
				FormatNumber(total.InputTokens),
				FormatNumber(total.OutputTokens),
				FormatNumber(total.CacheCreationInputTokens),
				FormatNumber(total.CacheReadInputTokens),
				FormatNumber(totalRequests),
				FormatCost(totalCost))
		}
	}

	fmt.Println()
	if compact {
		fmt.Println("(Compact mode - expand terminal for full view)")
	}

	printModelBreakdown(days)
}

func printModelBreakdown(days []model.DailyAggregate) {
	modelsMap := make(map[string]bool)
	for _, d := range days {
		for _, m := range d.Models {
			modelsMap[shortenModelName(m)] = true
		}
	}
	if len(modelsMap) == 0 {
		return
	}

	var models []string
	for m := range modelsMap {
		models = append(models, m)
	}
	sort.Strings(models)

	fmt.Println("Models used:")
	for _, m := range models {
		fmt.Printf("  - %s\n", m)
	}
	fmt.Println()
}

// PrintLeaderboard prints ranked leaderboard entries
func PrintLeaderboard(resp *api.LeaderboardResponse, highlight string) {
	if len(resp.Leaderboard) == 0 {
		fmt.Println("Leaderboard is empty.")
		return
	}

	nameWidth := 8
	for _, e := range resp.Leaderboard {
		if len(e.Username) > nameWidth {
			nameWidth = len(e.Username)
		}
	}

	fmt.Println()
	fmt.Printf("Leaderboard (%s, %s)\n\n", resp.Metric, resp.Period)
	fmt.Printf("%5s  %-*s  %12s  %14s  %10s  %10s\n",
		"Rank", nameWidth, "Username", "Requests", "Tokens", "Cost", "Active")
	fmt.Println(strings.Repeat("─", 5+2+nameWidth+2+12+2+14+2+10+2+10))

	for _, e := range resp.Leaderboard {
		marker := " "
		if e.Username == highlight {
			marker = "*"
		}
		fmt.Printf("%4d%s  %-*s  %12s  %14s  %10s  %10s\n",
			e.Rank, marker, nameWidth, e.Username,
			FormatNumber(e.TotalRequests),
			FormatNumber(e.TotalTokens),
			FormatCost(e.TotalCost),
			e.LastActive)
	}

	fmt.Println()
	fmt.Printf("Showing %d of %d users\n", len(resp.Leaderboard), resp.Total)
}

// PrintUserStats prints global ranks, running totals and recent activity
func PrintUserStats(resp *api.UserStatsResponse) {
	fmt.Println()
	fmt.Printf("Stats for %s\n\n", resp.Username)

	fmt.Println("Global rank:")
	fmt.Printf("  by requests  #%d\n", resp.GlobalRank.ByRequests)
	fmt.Printf("  by tokens    #%d\n", resp.GlobalRank.ByTokens)
	fmt.Printf("  by cost      #%d\n", resp.GlobalRank.ByCost)
	fmt.Println()

	fmt.Println("Totals:")
	fmt.Printf("  requests       %s\n", FormatNumber(resp.Totals.Requests))
	fmt.Printf("  input tokens   %s\n", FormatNumber(resp.Totals.InputTokens))
	fmt.Printf("  output tokens  %s\n", FormatNumber(resp.Totals.OutputTokens))
	fmt.Printf("  cost           %s\n", FormatCost(resp.Totals.Cost))
	fmt.Println()

	if len(resp.RecentActivity) == 0 {
		return
	}

	fmt.Println("Recent activity:")
	fmt.Printf("  %-10s  %10s  %10s\n", "Date", "Requests", "Cost")
	for _, day := range resp.RecentActivity {
		fmt.Printf("  %-10s  %10s  %10s\n",
			day.Date, FormatNumber(day.Requests), FormatCost(day.Cost))
	}
	fmt.Println()
}

// PrintJSON writes any value as indented JSON to stdout
func PrintJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(v)
}
