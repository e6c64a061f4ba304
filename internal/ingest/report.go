package ingest

import (
	"time"

	"extract-catalog/internal/catalog"
)

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageCheck   Stage = "check"
	StagePersist Stage = "persist"
)

// Report describes one run. Stage is set only when the run failed.
type Report struct {
	URL        string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool

	Found    int // items in the located list
	Dropped  int // items without a name
	Existing int // already stored, or repeated earlier in the list
	Failed   int // existence check could not complete
	Inserted int

	Pending []catalog.Entry // batch submitted, in source order
	Stage   Stage
}

func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
