package service

import (
	"context"
	"errors"
	"time"

	"finbridge"
	"finbridge/internal/coordinator"
	"finbridge/internal/entity"
)

// Source is the slice of the coordinator the entities service depends on.
type Source interface {
	Snapshot() *finbridge.Snapshot
	Healthy() bool
	Status() coordinator.Status
	Refresh(ctx context.Context) error
	Subscribe() (string, <-chan coordinator.Update)
	Unsubscribe(id string)
}

var (
	ErrSensorNotFound = errors.New("sensor not found")

	errInvalidTimeRange = errors.New("invalid time range: from must be <= to")
)

type EntitiesService struct {
	src Source
}

func NewEntitiesService(src Source) *EntitiesService {
	return &EntitiesService{src: src}
}

// Sensors projects all SENSOR queries of the current snapshot.
func (s *EntitiesService) Sensors(ctx context.Context) []finbridge.SensorReading {
	return entity.Readings(s.src.Snapshot(), s.src.Healthy())
}

// Sensor projects one SENSOR query; ErrSensorNotFound when the snapshot
// knows no such query.
func (s *EntitiesService) Sensor(ctx context.Context, queryID string) (finbridge.SensorReading, error) {
	snap := s.src.Snapshot()
	if snap == nil {
		return finbridge.SensorReading{}, ErrSensorNotFound
	}
	q, ok := snap.Query(queryID)
	if !ok || q.OutputType != finbridge.OutputSensor {
		return finbridge.SensorReading{}, ErrSensorNotFound
	}
	return entity.Reading(snap, s.src.Healthy(), q), nil
}

// Calendar returns events overlapping [from, to]; zero bounds are open
// ends. While the bridge is unhealthy the calendar, like the sensors,
// reports nothing rather than data it cannot vouch for — the stale
// snapshot itself stays intact underneath.
func (s *EntitiesService) Calendar(ctx context.Context, from, to time.Time) ([]finbridge.CalendarEvent, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	snap := s.src.Snapshot()
	if snap == nil || !s.src.Healthy() {
		return []finbridge.CalendarEvent{}, nil
	}

	all := entity.Events(snap)
	out := make([]finbridge.CalendarEvent, 0, len(all))
	for _, e := range all {
		if !to.IsZero() && e.Start.After(to) {
			continue
		}
		if !from.IsZero() && e.End.Before(from) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// NextEvent returns the next upcoming event, if any.
func (s *EntitiesService) NextEvent(ctx context.Context) (finbridge.CalendarEvent, bool) {
	snap := s.src.Snapshot()
	if snap == nil || !s.src.Healthy() {
		return finbridge.CalendarEvent{}, false
	}
	return entity.Next(snap, time.Now().UTC())
}

// Status reports the refresh loop health.
func (s *EntitiesService) Status(ctx context.Context) coordinator.Status {
	return s.src.Status()
}

// Refresh triggers a manual poll, coalesced with any in-flight cycle.
func (s *EntitiesService) Refresh(ctx context.Context) error {
	return s.src.Refresh(ctx)
}

func (s *EntitiesService) Subscribe() (string, <-chan coordinator.Update) {
	return s.src.Subscribe()
}

func (s *EntitiesService) Unsubscribe(id string) {
	s.src.Unsubscribe(id)
}
