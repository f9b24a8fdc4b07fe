package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tubescribe/internal/batch"
)

func renderSummary(result batch.Result, colorize bool) string {
	var b strings.Builder
	for _, line := range renderSectionHeader("Summary", colorize) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(result.Outcomes) == 0 {
		b.WriteString(renderStatusLine("Items", statusWarn, "input contained no items", colorize))
		b.WriteByte('\n')
		return b.String()
	}

	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		rows = append(rows, []string{
			strconv.Itoa(o.Item.Index),
			outcomeLabel(o),
			string(o.Status),
			chunkCell(o),
			outcomeDetail(o),
			formatElapsed(o.Elapsed),
		})
	}
	b.WriteString(renderTable(
		[]string{"#", "Item", "Status", "Chunks", "Detail", "Time"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
	b.WriteString("\n\n")

	for _, o := range result.Outcomes {
		if o.Status == batch.StatusFailed || o.Status == batch.StatusDegraded {
			b.WriteString(renderStatusLine(fmt.Sprintf("Item #%d", o.Item.Index), outcomeKind(o.Status), outcomeDetail(o), colorize))
			b.WriteByte('\n')
		}
	}

	counts := result.Counts()
	kind := statusOK
	switch {
	case counts.Failed > 0:
		kind = statusError
	case counts.Degraded > 0:
		kind = statusWarn
	}
	b.WriteString(renderStatusLine("Result", kind, result.Summary(), colorize))
	b.WriteByte('\n')
	if result.RunID != "" {
		b.WriteString(renderStatusLine("Run", statusInfo, result.RunID, colorize))
		b.WriteByte('\n')
	}
	return b.String()
}

func outcomeLabel(o batch.Outcome) string {
	if o.Title != "" {
		return o.Title
	}
	return o.Item.Reference
}

func outcomeDetail(o batch.Outcome) string {
	if o.Status == batch.StatusFailed && o.Category != "" {
		return fmt.Sprintf("%s: %s", o.Category, o.Detail)
	}
	return o.Detail
}

func chunkCell(o batch.Outcome) string {
	if o.Chunks == 0 {
		return "-"
	}
	if o.FailedChunks == 0 {
		return strconv.Itoa(o.Chunks)
	}
	return fmt.Sprintf("%d/%d", o.Chunks-o.FailedChunks, o.Chunks)
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
