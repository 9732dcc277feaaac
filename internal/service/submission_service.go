package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom-backend/internal/grading"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

// GuardQuizStore is the quiz lookup used by the submission guard.
type GuardQuizStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	ListAvailable(ctx context.Context, studentID uuid.UUID) ([]model.AvailableQuiz, error)
}

// QuestionLookup resolves questions by id in a single batch.
type QuestionLookup interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error)
}

// UserLookup resolves a single user.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// SubmissionStore is the submission persistence used by the guard.
type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	Exists(ctx context.Context, quizID, studentID uuid.UUID) (bool, error)
	GetByQuizAndStudent(ctx context.Context, quizID, studentID uuid.UUID) (*model.Submission, error)
}

// SubmissionPublisher announces stored submissions to live subscribers.
type SubmissionPublisher interface {
	PublishSubmission(ctx context.Context, ev model.SubmissionEvent) error
}

// SubmissionService lets a student start, submit and review a quiz, and
// guarantees at most one submission per (quiz, student).
type SubmissionService struct {
	quizzes     GuardQuizStore
	questions   QuestionLookup
	users       UserLookup
	submissions SubmissionStore
	publisher   SubmissionPublisher
	now         func() time.Time
	log         zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService. publisher may be nil.
func NewSubmissionService(
	quizzes GuardQuizStore,
	questions QuestionLookup,
	users UserLookup,
	submissions SubmissionStore,
	publisher SubmissionPublisher,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		quizzes:     quizzes,
		questions:   questions,
		users:       users,
		submissions: submissions,
		publisher:   publisher,
		now:         time.Now,
		log:         log.With().Str("component", "submission_service").Logger(),
	}
}

// ListAvailable returns active quizzes the student has not completed.
func (s *SubmissionService) ListAvailable(ctx context.Context, studentID uuid.UUID) ([]model.AvailableQuiz, error) {
	quizzes, err := s.quizzes.ListAvailable(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list available quizzes: %w", err)
	}
	return quizzes, nil
}

func (s *SubmissionService) getQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, err := s.quizzes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// Start hands out the questions of an active quiz without their answers and
// stamps the start time. Nothing is persisted, so starting twice is fine.
func (s *SubmissionService) Start(ctx context.Context, studentID, quizID uuid.UUID) (*model.StartedQuiz, error) {
	q, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, ErrQuizNotFound
	}

	done, err := s.submissions.Exists(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if done {
		return nil, ErrQuizAlreadyCompleted
	}

	byID, err := s.questions.GetByIDs(ctx, q.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	questions := make([]model.QuestionForStudent, 0, len(q.QuestionIDs))
	for _, id := range q.QuestionIDs {
		if question, ok := byID[id]; ok {
			questions = append(questions, question.ForStudent())
		}
	}

	return &model.StartedQuiz{
		Quiz: model.AvailableQuiz{
			ID:            q.ID,
			Title:         q.Title,
			Description:   q.Description,
			TimeLimit:     q.TimeLimit,
			QuestionCount: len(q.QuestionIDs),
			CreatorName:   s.creatorName(ctx, q.CreatedBy),
			CreatedAt:     q.CreatedAt,
		},
		Questions: questions,
		StartTime: s.now().UTC(),
	}, nil
}

func (s *SubmissionService) creatorName(ctx context.Context, id uuid.UUID) string {
	if s.users == nil {
		return ""
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.FullName()
}

// requireStudent fails with ErrUserNotFound once the account is deleted,
// even while its access token has not expired.
func (s *SubmissionService) requireStudent(ctx context.Context, id uuid.UUID) error {
	if s.users == nil {
		return nil
	}
	_, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	return nil
}

// Submit grades and stores the student's only attempt at a quiz.
func (s *SubmissionService) Submit(ctx context.Context, studentID, quizID uuid.UUID, req model.SubmitQuizRequest) (*model.SubmitResult, error) {
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	q, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	done, err := s.submissions.Exists(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if done {
		return nil, ErrQuizAlreadySubmitted
	}

	if !coversExactly(q.QuestionIDs, req.Answers) {
		return nil, ErrInvalidAnswerSet
	}

	submitTime := s.now().UTC()
	if req.StartTime.After(submitTime) {
		return nil, ErrInvalidStartTime
	}

	byID, err := s.questions.GetByIDs(ctx, q.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	questions := make([]model.Question, 0, len(byID))
	for _, question := range byID {
		questions = append(questions, question)
	}
	answers, score := grading.Grade(req.Answers, grading.KeyFor(questions))

	sub := &model.Submission{
		QuizID:         quizID,
		StudentID:      studentID,
		Answers:        answers,
		Score:          score,
		TotalQuestions: len(q.QuestionIDs),
		StartTime:      req.StartTime.UTC(),
		SubmitTime:     submitTime,
		TimeSpent:      grading.TimeSpent(req.StartTime, submitTime),
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, ErrQuizAlreadySubmitted
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	percentage := grading.Percentage(sub.Score, sub.TotalQuestions)
	s.log.Info().
		Str("quiz_id", quizID.String()).
		Str("student_id", studentID.String()).
		Int("score", sub.Score).
		Int("total", sub.TotalQuestions).
		Msg("Quiz submitted")

	s.publish(ctx, model.SubmissionEvent{
		Type:           "submission",
		QuizID:         quizID,
		StudentID:      studentID,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Percentage:     percentage,
		SubmitTime:     sub.SubmitTime,
	})

	return &model.SubmitResult{
		SubmissionID:   sub.ID,
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Percentage:     percentage,
		TimeSpent:      sub.TimeSpent,
	}, nil
}

// publish is best effort: a stored submission is never failed by the live feed.
func (s *SubmissionService) publish(ctx context.Context, ev model.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSubmission(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", ev.QuizID.String()).Msg("Failed to publish submission event")
	}
}

// coversExactly reports whether answers name every quiz question exactly once.
func coversExactly(questionIDs []uuid.UUID, answers []model.AnswerInput) bool {
	if len(answers) != len(questionIDs) {
		return false
	}
	pending := make(map[uuid.UUID]bool, len(questionIDs))
	for _, id := range questionIDs {
		pending[id] = true
	}
	for _, a := range answers {
		if !pending[a.QuestionID] {
			return false
		}
		pending[a.QuestionID] = false
	}
	return true
}

// Result returns the student's graded submission with per-question detail.
// Questions deleted since the submission are reported with a nil question.
func (s *SubmissionService) Result(ctx context.Context, studentID, quizID uuid.UUID) (*model.QuizResult, error) {
	sub, err := s.submissions.GetByQuizAndStudent(ctx, quizID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	q, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(sub.Answers))
	for i, a := range sub.Answers {
		ids[i] = a.QuestionID
	}
	byID, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}

	details := make([]model.DetailedAnswer, len(sub.Answers))
	for i, a := range sub.Answers {
		d := model.DetailedAnswer{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			IsCorrect:      a.IsCorrect,
		}
		if question, ok := byID[a.QuestionID]; ok {
			d.Question = &model.ResultQuestion{
				Title:       question.Title,
				Content:     question.Content,
				Options:     question.Options,
				Explanation: question.Explanation,
			}
			d.CorrectAnswer = question.CorrectAnswer
		}
		details[i] = d
	}

	return &model.QuizResult{
		Submission: model.SubmissionSummary{
			ID:              sub.ID,
			QuizID:          q.ID,
			QuizTitle:       q.Title,
			QuizDescription: q.Description,
			Score:           sub.Score,
			TotalQuestions:  sub.TotalQuestions,
			Percentage:      grading.Percentage(sub.Score, sub.TotalQuestions),
			TimeSpent:       sub.TimeSpent,
			SubmitTime:      sub.SubmitTime,
		},
		Answers: details,
	}, nil
}
