package splash

import (
	"fmt"

	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
)

// PageDecision tells the fetcher what to do with a page before record filtering.
type PageDecision int

const (
	DecisionNone     PageDecision = iota // process the page
	DecisionContinue                     // skip it, request the next page
	DecisionExit                         // stop paging
)

func (d PageDecision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionExit:
		return "exit"
	default:
		return "none"
	}
}

// PageFilter compares the first and last record of a page against the window.
// Pages are ascending when the first date is strictly earlier than the last.
//
//	ascending,  whole page before start -> continue
//	ascending,  whole page after end    -> exit
//	descending, whole page after end    -> continue
//	descending, whole page before start -> exit
//	otherwise                           -> none
//
// Unreadable dates yield DecisionNone together with the error.
func PageFilter(page []Record, dateFields []string, w syncwindow.Window) (PageDecision, error) {
	if len(page) == 0 || len(dateFields) == 0 {
		return DecisionNone, nil
	}
	loc := w.Location()
	dt1, err := RecordDate(page[0], dateFields, loc)
	if err != nil {
		return DecisionNone, fmt.Errorf("first record: %w", err)
	}
	dt2, err := RecordDate(page[len(page)-1], dateFields, loc)
	if err != nil {
		return DecisionNone, fmt.Errorf("last record: %w", err)
	}

	asc := dt1.Before(dt2)
	minDT, maxDT := dt2, dt1
	if asc {
		minDT, maxDT = dt1, dt2
	}

	if asc {
		if maxDT.Before(w.Start) {
			return DecisionContinue, nil
		}
		if minDT.After(w.End) {
			return DecisionExit, nil
		}
	} else {
		if minDT.After(w.End) {
			return DecisionContinue, nil
		}
		if maxDT.Before(w.Start) {
			return DecisionExit, nil
		}
	}
	return DecisionNone, nil
}

// FilterRecords keeps records dated inside the inclusive window. Records without a
// readable date are dropped.
func FilterRecords(page []Record, dateFields []string, w syncwindow.Window) (kept []Record, dropped int) {
	loc := w.Location()
	kept = make([]Record, 0, len(page))
	for _, r := range page {
		dt, err := RecordDate(r, dateFields, loc)
		if err != nil || !w.Contains(dt) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
