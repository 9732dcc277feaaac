package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/model"
)

// OrphanStore finds dangling references and repairs them one record at a
// time. Each repair re-checks its condition, so it is a no-op when the
// record was fixed or removed concurrently.
type OrphanStore interface {
	OrphanSubmissionIDs(ctx context.Context) ([]uuid.UUID, error)
	DeleteSubmissionIfOrphan(ctx context.Context, id uuid.UUID) (bool, error)
	OrphanAnalysisIDs(ctx context.Context) ([]uuid.UUID, error)
	DeleteAnalysisIfOrphan(ctx context.Context, id uuid.UUID) (bool, error)
	QuizzesWithDanglingQuestions(ctx context.Context) ([]model.Quiz, error)
	ExistingQuestionIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	ReplaceQuizQuestions(ctx context.Context, quizID uuid.UUID, old, repaired []uuid.UUID) (bool, error)
}

// SweepReport counts what one orphan sweep repaired.
type SweepReport struct {
	SubmissionsDeleted  int           `json:"submissions_deleted"`
	AnalysesDeleted     int           `json:"analyses_deleted"`
	QuizzesRepaired     int           `json:"quizzes_repaired"`
	QuizzesDeactivated  int           `json:"quizzes_deactivated"`
	DanglingRefsRemoved int           `json:"dangling_refs_removed"`
	Failures            int           `json:"failures"`
	Duration            time.Duration `json:"duration"`
}

// SweepService repairs references left dangling by partial failures or manual edits.
type SweepService struct {
	store OrphanStore
	log   zerolog.Logger
}

// NewSweepService creates a new SweepService.
func NewSweepService(store OrphanStore, log zerolog.Logger) *SweepService {
	return &SweepService{
		store: store,
		log:   log.With().Str("component", "sweep_service").Logger(),
	}
}

// Run performs one sweep. A failure on a single record is logged and
// counted; listing failures abort the sweep. Submissions are orphans when
// their quiz or their student is gone. The caller logs the report.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	report := &SweepReport{}

	subIDs, err := s.store.OrphanSubmissionIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orphan submissions: %w", err)
	}
	for _, id := range subIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deleted, err := s.store.DeleteSubmissionIfOrphan(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("submission_id", id.String()).Msg("Failed to delete orphan submission")
			report.Failures++
			continue
		}
		if deleted {
			report.SubmissionsDeleted++
		}
	}

	quizzes, err := s.store.QuizzesWithDanglingQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("find dangling quiz questions: %w", err)
	}
	for _, q := range quizzes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.repairQuiz(ctx, q, report); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", q.ID.String()).Msg("Failed to repair quiz")
			report.Failures++
		}
	}

	// Analyses last: a quiz repaired above may have been the only link.
	analysisIDs, err := s.store.OrphanAnalysisIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orphan analyses: %w", err)
	}
	for _, id := range analysisIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deleted, err := s.store.DeleteAnalysisIfOrphan(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("analysis_id", id.String()).Msg("Failed to delete orphan analysis")
			report.Failures++
			continue
		}
		if deleted {
			report.AnalysesDeleted++
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (s *SweepService) repairQuiz(ctx context.Context, q model.Quiz, report *SweepReport) error {
	existing, err := s.store.ExistingQuestionIDs(ctx, q.QuestionIDs)
	if err != nil {
		return fmt.Errorf("existing questions: %w", err)
	}
	alive := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		alive[id] = struct{}{}
	}

	repaired := make([]uuid.UUID, 0, len(q.QuestionIDs))
	for _, id := range q.QuestionIDs {
		if _, ok := alive[id]; ok {
			repaired = append(repaired, id)
		}
	}
	if len(repaired) == len(q.QuestionIDs) {
		return nil
	}

	changed, err := s.store.ReplaceQuizQuestions(ctx, q.ID, q.QuestionIDs, repaired)
	if err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}
	if !changed {
		// Edited concurrently; the next sweep picks it up if still dangling.
		return nil
	}

	report.QuizzesRepaired++
	report.DanglingRefsRemoved += len(q.QuestionIDs) - len(repaired)
	if len(repaired) == 0 && q.IsActive {
		report.QuizzesDeactivated++
	}
	return nil
}
