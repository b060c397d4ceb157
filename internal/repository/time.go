package repository

import (
	"time"

	"github.com/templui/goalcoach/internal/model"
)

// The sqlite driver scans timestamps in the local zone. Everything written
// is UTC, so it is read back as UTC too.

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func goalToUTC(g *model.Goal) {
	g.StartDate = utc(g.StartDate)
	g.EndDate = utcPtr(g.EndDate)
	g.CreatedAt = utc(g.CreatedAt)
	g.UpdatedAt = utc(g.UpdatedAt)
}

func milestoneToUTC(m *model.Milestone) {
	m.DueDate = utcPtr(m.DueDate)
	m.CompletedAt = utcPtr(m.CompletedAt)
	m.CreatedAt = utc(m.CreatedAt)
	m.UpdatedAt = utc(m.UpdatedAt)
}
