package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eventflow/efm-sync-backend/internal/application/sync"
)

// PrintSummary prints a single resource's sync outcome.
func PrintSummary(summary sync.Summary) {
	status := "ok"
	if !summary.Success {
		status = "FAILED"
	}
	fmt.Printf("%-16s %-7s synced=%d skipped=%d failed=%d", summary.Resource, status, summary.TotalSynced, summary.Skipped, summary.Failed)
	if summary.Message != "" {
		fmt.Printf("  %s", summary.Message)
	}
	fmt.Println()
}

// PrintRunReport prints the full run report.
func PrintRunReport(report *sync.RunReport) {
	fmt.Printf("efm-sync: full run (%s)\n", report.TriggerSource)
	fmt.Println(strings.Repeat("-", 60))

	names := make([]string, 0, len(report.Resources))
	for name := range report.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		PrintSummary(report.Resources[name])
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Synced=%d Skipped=%d Failed=%d FailedResources=%d Duration=%s\n",
		report.TotalSynced,
		report.TotalSkipped,
		report.TotalFailed,
		report.ResourcesFailed,
		report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond))

	if len(report.CompaniesFailed) > 0 {
		fmt.Printf("Companies with failed scoped syncs: %v\n", report.CompaniesFailed)
	}
}
