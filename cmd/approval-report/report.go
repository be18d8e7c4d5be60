package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/pkg/lmsclient"
)

type reportRow struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Instructor string          `json:"instructor"`
	Status     approval.Status `json:"status"`
}

type report struct {
	Counts  approval.Counts      `json:"counts"`
	Filter  approval.FilterState `json:"filter"`
	Matched int                  `json:"matched"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
	Rows    []reportRow          `json:"rows"`
}

func buildReport(view *approval.View[lmsclient.Course]) report {
	state := view.State()
	rep := report{
		Counts:  view.Counts(),
		Filter:  state,
		Matched: len(view.Filtered()),
		Page:    state.Page,
		Pages:   view.Pages(),
		Rows:    []reportRow{},
	}
	for _, c := range view.Page() {
		rep.Rows = append(rep.Rows, reportRow{
			ID:         c.ID,
			Title:      c.Title,
			Category:   c.CategoryName,
			Instructor: c.InstructorName,
			Status:     approval.Classify(c.ApprovalInput()),
		})
	}
	return rep
}

func writeJSON(out io.Writer, rep report) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func writeTable(out io.Writer, rep report) error {
	c := rep.Counts
	fmt.Fprintf(out, "pending=%d approved=%d rejected=%d total=%d\n", c.Pending, c.Approved, c.Rejected, c.Total)
	fmt.Fprintf(out, "status=%s matched=%d page=%d/%d\n\n", rep.Filter.Facet, rep.Matched, rep.Page, rep.Pages)

	if len(rep.Rows) == 0 {
		_, err := fmt.Fprintln(out, "no courses on this page")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tINSTRUCTOR\tSTATUS")
	for _, r := range rep.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.Category, r.Instructor, r.Status)
	}
	return tw.Flush()
}
