package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
)

var selectedRecords = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "browser_selected_records",
	Help: "Number of records in the session selection",
})

// Reconciler keeps a page's checked rows and the Set in agreement.
type Reconciler struct {
	set    *Set
	logger zerolog.Logger
}

// NewReconciler returns a reconciler over set.
func NewReconciler(set *Set) *Reconciler {
	if set == nil {
		panic("selection set cannot be nil")
	}
	return &Reconciler{
		set:    set,
		logger: logging.NewLogger("selection"),
	}
}

// Set returns the underlying selection set.
func (r *Reconciler) Set() *Set {
	return r.set
}

// Visible returns the records of page whose ids are selected, in page order.
func (r *Reconciler) Visible(page []catalog.Record) []catalog.Record {
	visible := make([]catalog.Record, 0, len(page))
	for _, rec := range page {
		if r.set.Contains(rec.ID) {
			visible = append(visible, rec)
		}
	}
	return visible
}

// Apply takes the checked rows the table reports for the current page.
// Every checked record is added; every record of page that is not checked
// is removed. Records outside page are left alone. It returns the new
// visible selection.
func (r *Reconciler) Apply(page, checked []catalog.Record) []catalog.Record {
	keep := make(map[int]struct{}, len(checked))
	for _, rec := range checked {
		keep[rec.ID] = struct{}{}
		r.set.Add(rec.ID)
	}
	for _, rec := range page {
		if _, ok := keep[rec.ID]; !ok {
			r.set.Remove(rec.ID)
		}
	}

	selectedRecords.Set(float64(r.set.Len()))
	r.logger.Debug().
		Int("checked", len(checked)).
		Int("page_rows", len(page)).
		Int("selected_total", r.set.Len()).
		Msg("Selection reconciled")

	return r.Visible(page)
}

// Toggle flips the checked state of id on page.
func (r *Reconciler) Toggle(page []catalog.Record, id int) []catalog.Record {
	checked := make([]catalog.Record, 0, len(page))
	for _, rec := range page {
		selected := r.set.Contains(rec.ID)
		if rec.ID == id {
			selected = !selected
		}
		if selected {
			checked = append(checked, rec)
		}
	}
	return r.Apply(page, checked)
}

// ToggleAll checks every row of page, or unchecks them all when every row
// is already checked.
func (r *Reconciler) ToggleAll(page []catalog.Record) []catalog.Record {
	if len(page) > 0 && len(r.Visible(page)) == len(page) {
		return r.Apply(page, nil)
	}
	return r.Apply(page, page)
}

// IsSelected reports whether rec is selected.
func (r *Reconciler) IsSelected(rec catalog.Record) bool {
	return r.set.Contains(rec.ID)
}
