package service

import (
	"context"
	"time"

	"finbridge"
	"finbridge/internal/coordinator"
	"finbridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Entities exposes the entity views over the current snapshot, plus
// subscription and manual refresh. Reads never block on a poll.
type Entities interface {
	Sensors(ctx context.Context) []finbridge.SensorReading
	Sensor(ctx context.Context, queryID string) (finbridge.SensorReading, error)
	Calendar(ctx context.Context, from, to time.Time) ([]finbridge.CalendarEvent, error)
	NextEvent(ctx context.Context) (finbridge.CalendarEvent, bool)
	Status(ctx context.Context) coordinator.Status
	Refresh(ctx context.Context) error
	Subscribe() (string, <-chan coordinator.Update)
	Unsubscribe(id string)
}

// History exposes the poll audit trail with filtering.
type History interface {
	List(ctx context.Context, f HistoryFilter) ([]finbridge.PollRecord, error)
}

// Setup performs the pre-persist connection validation: the one component
// that reports fetch failures directly to the end user.
type Setup interface {
	Validate(ctx context.Context, p ConnectionParams) ValidationErrors
}

// Service aggregates all sub-services.
type Service struct {
	Entities
	History
	Setup
	Authorization
}

// AuthConfig carries the token settings down from config.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

func NewService(coord *coordinator.Coordinator, repos *repository.Repository, auth AuthConfig) *Service {
	return &Service{
		Entities:      NewEntitiesService(coord),
		History:       NewHistoryService(repos.PollLog),
		Setup:         NewSetupService(),
		Authorization: NewAuthService(repos.Auth, auth),
	}
}
