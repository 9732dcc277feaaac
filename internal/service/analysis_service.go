package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/ai"
	"github.com/stemsi/quizroom-backend/internal/analytics"
	"github.com/stemsi/quizroom-backend/internal/config"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// Analyzer produces the analysis text of one question.
type Analyzer interface {
	AnalyzeQuestion(ctx context.Context, in ai.QuestionInput) (string, error)
}

// AnalysisStore persists analyses, one per (question, quiz).
type AnalysisStore interface {
	Get(ctx context.Context, questionID, quizID uuid.UUID) (*model.QuestionAnalysis, error)
	Create(ctx context.Context, a *model.QuestionAnalysis) (*model.QuestionAnalysis, bool, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.QuestionAnalysis, error)
	Delete(ctx context.Context, questionID, quizID uuid.UUID) (int64, error)
}

// Locker collapses concurrent work on the same key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// AnalysisService returns a stored analysis or computes, stores and returns a new one.
type AnalysisService struct {
	quizzes     QuizLookup
	questions   QuestionLookup
	submissions SubmissionLister
	analyses    AnalysisStore
	analyzer    Analyzer
	locker      Locker

	lockTTL      time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewAnalysisService creates a new AnalysisService. locker may be nil, in
// which case concurrent requests may each call the analyzer and the first
// stored row wins.
func NewAnalysisService(
	quizzes QuizLookup,
	questions QuestionLookup,
	submissions SubmissionLister,
	analyses AnalysisStore,
	analyzer Analyzer,
	locker Locker,
	aiTimeout time.Duration,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		quizzes:      quizzes,
		questions:    questions,
		submissions:  submissions,
		analyses:     analyses,
		analyzer:     analyzer,
		locker:       locker,
		lockTTL:      aiTimeout + 5*time.Second,
		pollInterval: 250 * time.Millisecond,
		log:          log.With().Str("component", "analysis_service").Logger(),
	}
}

func (s *AnalysisService) stored(ctx context.Context, questionID, quizID uuid.UUID) (*model.AnalysisResult, error) {
	a, err := s.analyses.Get(ctx, questionID, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return &model.AnalysisResult{QuestionID: questionID, QuizID: quizID, Analysis: a.Analysis, Cached: true}, nil
}

// Analyze returns the analysis of questionID within quizID, calling the
// analyzer only when none is stored. Analyzer failures yield
// ErrAnalysisUnavailable and store nothing.
func (s *AnalysisService) Analyze(ctx context.Context, owner, questionID, quizID uuid.UUID) (*model.AnalysisResult, error) {
	quiz, err := ownedQuiz(ctx, s.quizzes, owner, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.Contains(questionID) {
		return nil, ErrQuestionNotFound
	}

	if res, err := s.stored(ctx, questionID, quizID); res != nil || err != nil {
		return res, err
	}

	if s.locker != nil {
		key := config.CacheKey.AnalysisLockKey(questionID.String(), quizID.String())
		unlock, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("Analysis lock unavailable, computing without it")
		case !ok:
			return s.waitForStored(ctx, questionID, quizID)
		default:
			defer unlock()
			// The previous holder may have finished between our read and the lock.
			if res, err := s.stored(ctx, questionID, quizID); res != nil || err != nil {
				return res, err
			}
		}
	}

	return s.compute(ctx, quiz, questionID)
}

func (s *AnalysisService) compute(ctx context.Context, quiz *model.Quiz, questionID uuid.UUID) (*model.AnalysisResult, error) {
	byID, err := s.questions.GetByIDs(ctx, []uuid.UUID{questionID})
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	question, ok := byID[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}

	subs, err := s.submissions.List(ctx, model.SubmissionFilter{QuizIDs: []uuid.UUID{quiz.ID}})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	stats := analytics.QuestionBreakdown([]model.Question{question}, subs, analytics.QuestionSort{})[0]

	text, err := s.analyzer.AnalyzeQuestion(ctx, ai.QuestionInput{
		Title:         question.Title,
		Content:       question.Content,
		Difficulty:    question.Difficulty,
		Options:       question.Options,
		CorrectAnswer: question.CorrectAnswer,
		TotalAttempts: stats.TotalAttempts,
		CorrectRate:   stats.CorrectRate,
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("question_id", questionID.String()).
			Str("quiz_id", quiz.ID.String()).
			Msg("Question analysis failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	stored, inserted, err := s.analyses.Create(ctx, &model.QuestionAnalysis{
		QuestionID: questionID,
		QuizID:     quiz.ID,
		Analysis:   text,
	})
	if err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	return &model.AnalysisResult{
		QuestionID: questionID,
		QuizID:     quiz.ID,
		Analysis:   stored.Analysis,
		Cached:     !inserted,
	}, nil
}

// waitForStored polls for the row another request is computing.
func (s *AnalysisService) waitForStored(ctx context.Context, questionID, quizID uuid.UUID) (*model.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrAnalysisUnavailable
		case <-ticker.C:
			res, err := s.stored(ctx, questionID, quizID)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
		}
	}
}

// ListByQuiz returns every stored analysis of one of owner's quizzes.
func (s *AnalysisService) ListByQuiz(ctx context.Context, owner, quizID uuid.UUID) ([]model.QuestionAnalysis, error) {
	if _, err := ownedQuiz(ctx, s.quizzes, owner, quizID); err != nil {
		return nil, err
	}
	out, err := s.analyses.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

// Clear deletes a stored analysis so the next Analyze recomputes it.
func (s *AnalysisService) Clear(ctx context.Context, owner, questionID, quizID uuid.UUID) error {
	if _, err := ownedQuiz(ctx, s.quizzes, owner, quizID); err != nil {
		return err
	}
	n, err := s.analyses.Delete(ctx, questionID, quizID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if n == 0 {
		return ErrAnalysisNotFound
	}
	s.log.Info().Str("question_id", questionID.String()).Str("quiz_id", quizID.String()).Msg("Analysis cleared")
	return nil
}
