package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finbridge"
	"finbridge/internal/repository"
)

// HistoryFilter narrows the poll audit trail by time range and outcome.
type HistoryFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Outcome string    // "", "SUCCESS", "FAILURE"
}

type HistoryService struct {
	pollLog repository.PollLogRepo
}

func NewHistoryService(pollLog repository.PollLogRepo) *HistoryService {
	return &HistoryService{pollLog: pollLog}
}

var errInvalidHistoryRange = errors.New("invalid time range: from must be <= to")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeOutcome(s string) (string, error) {
	outcome := strings.ToUpper(strings.TrimSpace(s))
	switch outcome {
	case "", finbridge.PollSuccess, finbridge.PollFailure:
		return outcome, nil
	}
	return "", fmt.Errorf("invalid outcome %q: must be SUCCESS or FAILURE", s)
}

func (s *HistoryService) List(ctx context.Context, f HistoryFilter) ([]finbridge.PollRecord, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidHistoryRange
	}

	outcome, err := normalizeOutcome(f.Outcome)
	if err != nil {
		return nil, err
	}

	return s.pollLog.List(ctx, from, to, outcome)
}
