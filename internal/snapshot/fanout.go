package snapshot

import (
	"context"
	"log"

	"guthealth-planner/internal/plan"
)

// Fanout writes each snapshot to every configured saver. A failure in one
// saver is logged and does not stop the others; Save only reports an error
// when every saver failed.
type Fanout struct {
	savers []plan.Snapshotter
}

// NewFanout creates a fanout over the given savers. Nil savers are skipped.
func NewFanout(savers ...plan.Snapshotter) *Fanout {
	f := &Fanout{}
	for _, s := range savers {
		if s != nil {
			f.savers = append(f.savers, s)
		}
	}
	return f
}

func (f *Fanout) Save(ctx context.Context, snap plan.Snapshot) error {
	if len(f.savers) == 0 {
		return nil
	}
	var lastErr error
	succeeded := false
	for _, s := range f.savers {
		if err := s.Save(ctx, snap); err != nil {
			log.Printf("WARNING: snapshot saver failed: %v", err)
			lastErr = err
			continue
		}
		succeeded = true
	}
	if !succeeded {
		return lastErr
	}
	return nil
}
