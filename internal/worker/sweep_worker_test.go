package worker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/service"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Run(ctx context.Context) (*service.SweepReport, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep run without a deadline")
	}
	return &service.SweepReport{SubmissionsDeleted: 1}, nil
}

func TestRunOnce(t *testing.T) {
	s := &countingSweeper{}
	w := NewSweepWorker(s, "@hourly", zerolog.Nop())

	report, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.SubmissionsDeleted != 1 || w.Runs() != 1 {
		t.Errorf("report = %+v, runs = %d", report, w.Runs())
	}

	s.err = errors.New("db down")
	if _, err := w.RunOnce(context.Background()); err == nil {
		t.Error("expected sweep error")
	}
}

// cleanStore is an OrphanStore with nothing to repair.
type cleanStore struct{}

func (cleanStore) OrphanSubmissionIDs(context.Context) ([]uuid.UUID, error) { return nil, nil }
func (cleanStore) DeleteSubmissionIfOrphan(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (cleanStore) OrphanAnalysisIDs(context.Context) ([]uuid.UUID, error) { return nil, nil }
func (cleanStore) DeleteAnalysisIfOrphan(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}
func (cleanStore) QuizzesWithDanglingQuestions(context.Context) ([]model.Quiz, error) {
	return nil, nil
}
func (cleanStore) ExistingQuestionIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return ids, nil
}
func (cleanStore) ReplaceQuizQuestions(context.Context, uuid.UUID, []uuid.UUID, []uuid.UUID) (bool, error) {
	return false, nil
}

func TestRunOnceLogsReportOnce(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	w := NewSweepWorker(service.NewSweepService(cleanStore{}, log), "@hourly", log)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n := strings.Count(buf.String(), "Orphan sweep finished"); n != 1 {
		t.Errorf("summary logged %d times, want 1:\n%s", n, buf.String())
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	w := NewSweepWorker(&countingSweeper{}, "not a schedule", zerolog.Nop())
	if err := w.Start(); err == nil {
		t.Fatal("expected invalid schedule error")
	}
	// Stop without a running scheduler is a no-op.
	w.Stop(context.Background())
}

func TestScheduledSweepRuns(t *testing.T) {
	s := &countingSweeper{}
	w := NewSweepWorker(s, "@every 1s", zerolog.Nop())
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for s.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled sweep never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
