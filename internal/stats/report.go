package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	Operations       []model.OperationAggregate
	OperationsWindow []model.OperationAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	windowIDs := lastSessionIDs(sessions, cfg.CurveWindow)
	ops, err := st.ListOperationAggregates(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	opsWindow, err := st.ListOperationAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		Operations:       ops,
		OperationsWindow: opsWindow,
	}, nil
}

// Render writes the full plain-text report.
func (r Report) Render(w io.Writer, cfg model.StatsConfig, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCurves(w, r.Sessions, cfg.CurveWindow, width); err != nil {
		return err
	}
	if err := RenderOperationTable(w, r.Operations); err != nil {
		return err
	}
	return RenderRecent(w, r.Sessions, 10)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

func lastSessionIDs(sessions []model.SessionAggregate, window int) []int64 {
	if window <= 0 || len(sessions) <= window {
		return sessionIDs(sessions)
	}
	return sessionIDs(sessions[len(sessions)-window:])
}
