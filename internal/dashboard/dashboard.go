// Package dashboard loads the data behind the dashboard view and fills any
// gap with built-in placeholder content, so the view never renders blank
// because the backend is down.
package dashboard

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/donezo-dev/donezo/internal/models"
)

// MaxProjects caps the project list shown on the dashboard
const MaxProjects = 5

// Default counters used when the summary is unavailable or incomplete
const (
	DefaultTotalProjects   = 24
	DefaultEndedProjects   = 10
	DefaultRunningProjects = 12
	DefaultPendingProjects = 2
)

// FallbackProjects is shown when the project list is unavailable or empty
var FallbackProjects = []models.Project{
	{ID: models.StringID("fallback-1"), Title: "Develop API Endpoints", DueDate: "Nov 26, 2024"},
	{ID: models.StringID("fallback-2"), Title: "Onboarding Flow", DueDate: "Nov 28, 2024"},
	{ID: models.StringID("fallback-3"), Title: "Build Dashboard", DueDate: "Nov 30, 2024"},
	{ID: models.StringID("fallback-4"), Title: "Optimize Page Load", DueDate: "Dec 5, 2024"},
	{ID: models.StringID("fallback-5"), Title: "Cross-Browser Testing", DueDate: "Dec 6, 2024"},
}

// Source is the read side of the API client used by the dashboard
type Source interface {
	Summary(ctx context.Context) (*models.Summary, error)
	Projects(ctx context.Context) ([]models.Project, error)
}

// Totals are the resolved summary counters
type Totals struct {
	Total   int `json:"totalProjects" yaml:"totalProjects"`
	Ended   int `json:"endedProjects" yaml:"endedProjects"`
	Running int `json:"runningProjects" yaml:"runningProjects"`
	Pending int `json:"pendingProjects" yaml:"pendingProjects"`
}

// View is everything the dashboard renders
type View struct {
	Identity         *models.Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
	Totals           Totals           `json:"totals" yaml:"totals"`
	Projects         []models.Project `json:"projects" yaml:"projects"`
	EndedPercent     int              `json:"endedPercent" yaml:"endedPercent"`
	SummaryFallback  bool             `json:"summaryFallback" yaml:"summaryFallback"`
	ProjectsFallback bool             `json:"projectsFallback" yaml:"projectsFallback"`
	Loading          bool             `json:"loading" yaml:"loading"`
}

// Fetcher loads the dashboard view
type Fetcher struct {
	source Source
	logger zerolog.Logger
}

// NewFetcher creates a fetcher reading from source
func NewFetcher(source Source, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		logger: log.With().Str("component", "dashboard").Logger(),
	}
}

// Load fetches the summary and the project list concurrently and waits for both.
// It never fails: each call that errors or comes back empty is logged and
// replaced by its placeholder. Cancelling ctx aborts in-flight requests.
// Fallbacks are per call: a failed summary keeps a successful project list.
func (f *Fetcher) Load(ctx context.Context) View {
	var (
		summary     *models.Summary
		projects    []models.Project
		summaryErr  error
		projectsErr error
	)

	// Errors are kept per call instead of returned so one failure does not
	// cancel the sibling request
	var g errgroup.Group

	g.Go(func() error {
		summary, summaryErr = f.source.Summary(ctx)
		return nil
	})

	g.Go(func() error {
		projects, projectsErr = f.source.Projects(ctx)
		return nil
	})

	_ = g.Wait()

	if summaryErr != nil {
		f.logger.Error().Err(summaryErr).Msg("Error loading dashboard summary")
		summary = nil
	}
	if projectsErr != nil {
		f.logger.Error().Err(projectsErr).Msg("Error loading dashboard projects")
		projects = nil
	}

	view := View{
		Totals:          ResolveTotals(summary),
		SummaryFallback: summary == nil,
		Loading:         false,
	}
	view.EndedPercent = Percent(view.Totals.Ended, view.Totals.Total)
	view.Projects, view.ProjectsFallback = ResolveProjects(projects)

	return view
}

// ResolveTotals applies the default for every counter the summary lacks
func ResolveTotals(s *models.Summary) Totals {
	totals := Totals{
		Total:   DefaultTotalProjects,
		Ended:   DefaultEndedProjects,
		Running: DefaultRunningProjects,
		Pending: DefaultPendingProjects,
	}
	if s == nil {
		return totals
	}

	if s.TotalProjects != nil {
		totals.Total = *s.TotalProjects
	}
	if s.EndedProjects != nil {
		totals.Ended = *s.EndedProjects
	}
	if s.RunningProjects != nil {
		totals.Running = *s.RunningProjects
	}
	if s.PendingProjects != nil {
		totals.Pending = *s.PendingProjects
	}
	return totals
}

// ResolveProjects falls back to the placeholders for an empty list and caps the result.
// The returned slice never aliases FallbackProjects or the input.
func ResolveProjects(projects []models.Project) ([]models.Project, bool) {
	fallback := len(projects) == 0
	if fallback {
		projects = FallbackProjects
	}

	if len(projects) > MaxProjects {
		projects = projects[:MaxProjects]
	}

	out := make([]models.Project, len(projects))
	copy(out, projects)
	return out, fallback
}

// Percent returns part as a whole percentage of total, or 0 when total is not positive
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}
