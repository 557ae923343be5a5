package memstore

import (
	"context"

	"opserp/internal/domain/audit"
	"opserp/internal/domain/events"
)

// Publisher implements events.Publisher by appending to the store,
// so a rolled back transaction also drops its events.
type Publisher struct{ s *Store }

var _ events.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, event events.StatusChanged) error {
	return p.s.do(ctx, func(st *state) error {
		st.events = append(st.events, event)
		return nil
	})
}

// Events returns a copy of the published events in order.
func (p *Publisher) Events() []events.StatusChanged {
	var out []events.StatusChanged
	_ = p.s.do(context.Background(), func(st *state) error {
		out = append(out, st.events...)
		return nil
	})
	return out
}

// Recorder implements audit.Recorder.
type Recorder struct{ s *Store }

var _ audit.Recorder = (*Recorder)(nil)

func (r *Recorder) Record(ctx context.Context, entry audit.Entry) error {
	return r.s.do(ctx, func(st *state) error {
		st.audit = append(st.audit, entry)
		return nil
	})
}

// Entries returns a copy of the recorded audit entries in order.
func (r *Recorder) Entries() []audit.Entry {
	var out []audit.Entry
	_ = r.s.do(context.Background(), func(st *state) error {
		out = append(out, st.audit...)
		return nil
	})
	return out
}
