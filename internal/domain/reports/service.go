package reports

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/summary"
)

type SummaryProvider interface {
	CycleMetrics(ctx context.Context, cycleID string) (summary.CycleMetrics, error)
	RejectionLog(ctx context.Context, cycleID string) ([]summary.RejectionRecord, error)
}

type CycleProvider interface {
	Get(ctx context.Context, id string) (cycle.Cycle, error)
}

type Service struct {
	summaries SummaryProvider
	cycles    CycleProvider
}

func NewService(summaries SummaryProvider, cycles CycleProvider) *Service {
	return &Service{summaries: summaries, cycles: cycles}
}

// CycleProgressPDF renders the HR progress report for a cycle: phase,
// nomination totals, completion rate, relationship breakdown, and the
// rejection log.
func (s *Service) CycleProgressPDF(ctx context.Context, cycleID string) ([]byte, error) {
	c, err := s.cycles.Get(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.summaries.CycleMetrics(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	rejections, err := s.summaries.RejectionLog(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return renderCycleProgress(c, metrics, rejections)
}

func renderCycleProgress(c cycle.Cycle, metrics summary.CycleMetrics, rejections []summary.RejectionRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Feedback Cycle Progress")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Cycle: %s", c.Name))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Phase: %s", c.Phase))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04")))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Nominations: %d (pending %d, approved %d, rejected %d)",
		metrics.Nominations, metrics.Pending, metrics.Approved, metrics.Rejected))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Feedback: %d completed, %d in progress, %d not started",
		metrics.Completed, metrics.InProgress, metrics.NotStarted))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Participation: %d of %d employees (%.0f%%)",
		metrics.Requesters, metrics.ActiveEmployees, metrics.NominationRate*100))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Approval rate: %.0f%%, completion rate: %.0f%%",
		metrics.ApprovalRate*100, metrics.CompletionRate*100))
	pdf.Ln(10)

	relationships := make([]string, 0, len(metrics.ByRelationship))
	for rel := range metrics.ByRelationship {
		relationships = append(relationships, rel)
	}
	sort.Strings(relationships)
	for _, rel := range relationships {
		pdf.Cell(0, 8, fmt.Sprintf("  %s: %d", rel, metrics.ByRelationship[rel]))
		pdf.Ln(7)
	}

	if len(rejections) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Rejections")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, r := range rejections {
			pdf.Cell(0, 7, fmt.Sprintf("%s -> %s: %s", r.RequesterID, r.ReviewerKey, r.Reason))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
