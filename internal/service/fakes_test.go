package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizroom-backend/internal/model"
	"github.com/stemsi/quizroom-backend/internal/repository"
)

var errInjected = errors.New("injected failure")

type analysisKey struct{ question, quiz uuid.UUID }

// memDB is an in-memory stand-in for Postgres shared by the fakes below.
type memDB struct {
	mu        sync.Mutex
	users     map[uuid.UUID]model.User
	questions map[uuid.UUID]model.Question
	quizzes   map[uuid.UUID]model.Quiz
	subs      map[uuid.UUID]model.Submission
	analyses  map[analysisKey]model.QuestionAnalysis

	// failOn names a CascadeTx method that returns errInjected.
	failOn string
	// onQuizLocked runs inside EditQuiz right after the quiz row is locked.
	onQuizLocked func()
}

func newMemDB() *memDB {
	return &memDB{
		users:     map[uuid.UUID]model.User{},
		questions: map[uuid.UUID]model.Question{},
		quizzes:   map[uuid.UUID]model.Quiz{},
		subs:      map[uuid.UUID]model.Submission{},
		analyses:  map[analysisKey]model.QuestionAnalysis{},
	}
}

// ─── Seeding helpers ────────────────────────────────────────────────

func (db *memDB) addUser(role model.Role) model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := model.User{
		ID:           uuid.New(),
		Username:     "user_" + uuid.NewString()[:8],
		Email:        "u@example.com",
		PasswordHash: "hash",
		Role:         role,
		Profile:      model.Profile{FirstName: "Ana", LastName: "Lee"},
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addQuestion(owner uuid.UUID, correct string) model.Question {
	db.mu.Lock()
	defer db.mu.Unlock()
	q := model.Question{
		ID:            uuid.New(),
		Title:         "Question",
		Content:       "Pick one",
		Options:       []model.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"}},
		CorrectAnswer: correct,
		Difficulty:    model.DifficultyMedium,
		Tags:          []string{},
		CreatedBy:     owner,
	}
	db.questions[q.ID] = q
	return q
}

func (db *memDB) addQuiz(owner uuid.UUID, active bool, questionIDs ...uuid.UUID) model.Quiz {
	db.mu.Lock()
	defer db.mu.Unlock()
	q := model.Quiz{
		ID:          uuid.New(),
		Title:       "Quiz",
		QuestionIDs: append([]uuid.UUID(nil), questionIDs...),
		IsActive:    active,
		CreatedBy:   owner,
		CreatedAt:   time.Now(),
	}
	db.quizzes[q.ID] = q
	return q
}

func (db *memDB) addSubmission(quizID, studentID uuid.UUID, score, total int) model.Submission {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	s := model.Submission{
		ID:             uuid.New(),
		QuizID:         quizID,
		StudentID:      studentID,
		Score:          score,
		TotalQuestions: total,
		StartTime:      now.Add(-time.Minute),
		SubmitTime:     now,
		TimeSpent:      60,
	}
	db.subs[s.ID] = s
	return s
}

func (db *memDB) addAnalysis(questionID, quizID uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.analyses[analysisKey{questionID, quizID}] = model.QuestionAnalysis{
		ID: uuid.New(), QuestionID: questionID, QuizID: quizID, Analysis: "stored",
	}
}

func (db *memDB) quiz(id uuid.UUID) (model.Quiz, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	q, ok := db.quizzes[id]
	return q, ok
}

func (db *memDB) hasAnalysis(questionID, quizID uuid.UUID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.analyses[analysisKey{questionID, quizID}]
	return ok
}

func (db *memDB) counts() (users, questions, quizzes, subs, analyses int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), len(db.questions), len(db.quizzes), len(db.subs), len(db.analyses)
}

// ─── Users ──────────────────────────────────────────────────────────

type fakeUsers struct{ db *memDB }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	u.ID = uuid.New()
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[uuid.UUID]model.User{}
	for _, id := range ids {
		if u, ok := f.db.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// ─── Questions ──────────────────────────────────────────────────────

type fakeQuestions struct{ db *memDB }

func (f fakeQuestions) Create(_ context.Context, q *model.Question) error {
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if err := q.Validate(); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	q.ID = uuid.New()
	f.db.questions[q.ID] = *q
	return nil
}

func (f fakeQuestions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	q, ok := f.db.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (f fakeQuestions) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := map[uuid.UUID]model.Question{}
	for _, id := range ids {
		if q, ok := f.db.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f fakeQuestions) List(_ context.Context, flt model.QuestionFilter) ([]model.Question, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Question{}
	for _, q := range f.db.questions {
		if q.CreatedBy == flt.OwnerID {
			out = append(out, q)
		}
	}
	return out, len(out), nil
}

func (f fakeQuestions) Update(_ context.Context, q *model.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.questions[q.ID]; !ok {
		return repository.ErrNotFound
	}
	f.db.questions[q.ID] = *q
	return nil
}

// ─── Quizzes ────────────────────────────────────────────────────────

type fakeQuizzes struct{ db *memDB }

func (f fakeQuizzes) GetByID(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	q, ok := f.db.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	q.QuestionIDs = append([]uuid.UUID(nil), q.QuestionIDs...)
	return &q, nil
}

func (f fakeQuizzes) ListByOwner(_ context.Context, owner uuid.UUID, limit, offset int) ([]model.QuizSummary, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.QuizSummary{}
	for _, q := range f.db.quizzes {
		if q.CreatedBy == owner {
			out = append(out, model.QuizSummary{Quiz: q, QuestionCount: len(q.QuestionIDs)})
		}
	}
	return out, len(out), nil
}

func (f fakeQuizzes) ListAvailable(_ context.Context, studentID uuid.UUID) ([]model.AvailableQuiz, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.AvailableQuiz{}
	for _, q := range f.db.quizzes {
		if !q.IsActive {
			continue
		}
		done := false
		for _, s := range f.db.subs {
			if s.QuizID == q.ID && s.StudentID == studentID {
				done = true
			}
		}
		if !done {
			out = append(out, model.AvailableQuiz{ID: q.ID, Title: q.Title, QuestionCount: len(q.QuestionIDs)})
		}
	}
	return out, nil
}

func (f fakeQuizzes) ListAnalytics(_ context.Context, owner uuid.UUID) ([]model.QuizAnalyticsItem, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.QuizAnalyticsItem{}
	for _, q := range f.db.quizzes {
		if q.CreatedBy == owner {
			out = append(out, model.QuizAnalyticsItem{ID: q.ID, Title: q.Title, QuestionCount: len(q.QuestionIDs)})
		}
	}
	return out, nil
}

func (f fakeQuizzes) IDsByOwner(_ context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ids := []uuid.UUID{}
	for id, q := range f.db.quizzes {
		if q.CreatedBy == owner {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ─── Submissions ────────────────────────────────────────────────────

type fakeSubmissions struct{ db *memDB }

func (f fakeSubmissions) Create(_ context.Context, s *model.Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.subs {
		if existing.QuizID == s.QuizID && existing.StudentID == s.StudentID {
			return repository.ErrDuplicateSubmission
		}
	}
	s.ID = uuid.New()
	f.db.subs[s.ID] = *s
	return nil
}

func (f fakeSubmissions) Exists(_ context.Context, quizID, studentID uuid.UUID) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.subs {
		if s.QuizID == quizID && s.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeSubmissions) GetByQuizAndStudent(_ context.Context, quizID, studentID uuid.UUID) (*model.Submission, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.subs {
		if s.QuizID == quizID && s.StudentID == studentID {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeSubmissions) List(_ context.Context, flt model.SubmissionFilter) ([]model.Submission, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	in := map[uuid.UUID]bool{}
	for _, id := range flt.QuizIDs {
		in[id] = true
	}
	out := []model.Submission{}
	for _, s := range f.db.subs {
		if !in[s.QuizID] {
			continue
		}
		if flt.From != nil && s.SubmitTime.Before(*flt.From) {
			continue
		}
		if flt.To != nil && s.SubmitTime.After(*flt.To) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// ─── Analyses ───────────────────────────────────────────────────────

type fakeAnalyses struct{ db *memDB }

func (f fakeAnalyses) Get(_ context.Context, questionID, quizID uuid.UUID) (*model.QuestionAnalysis, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.analyses[analysisKey{questionID, quizID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (f fakeAnalyses) Create(_ context.Context, a *model.QuestionAnalysis) (*model.QuestionAnalysis, bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	k := analysisKey{a.QuestionID, a.QuizID}
	if existing, ok := f.db.analyses[k]; ok {
		return &existing, false, nil
	}
	a.ID = uuid.New()
	f.db.analyses[k] = *a
	return a, true, nil
}

func (f fakeAnalyses) ListByQuiz(_ context.Context, quizID uuid.UUID) ([]model.QuestionAnalysis, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.QuestionAnalysis{}
	for k, a := range f.db.analyses {
		if k.quiz == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAnalyses) Delete(_ context.Context, questionID, quizID uuid.UUID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	k := analysisKey{questionID, quizID}
	if _, ok := f.db.analyses[k]; !ok {
		return 0, nil
	}
	delete(f.db.analyses, k)
	return 1, nil
}

// ─── Cascade transactions ───────────────────────────────────────────

// RunInTx holds the lock for the whole transaction and restores a snapshot
// when fn fails.
func (db *memDB) RunInTx(_ context.Context, fn func(CascadeTx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshotLocked()
	if err := fn(memTx{db: db}); err != nil {
		db.restoreLocked(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	users     map[uuid.UUID]model.User
	questions map[uuid.UUID]model.Question
	quizzes   map[uuid.UUID]model.Quiz
	subs      map[uuid.UUID]model.Submission
	analyses  map[analysisKey]model.QuestionAnalysis
}

func (db *memDB) snapshotLocked() memSnapshot {
	s := memSnapshot{
		users:     map[uuid.UUID]model.User{},
		questions: map[uuid.UUID]model.Question{},
		quizzes:   map[uuid.UUID]model.Quiz{},
		subs:      map[uuid.UUID]model.Submission{},
		analyses:  map[analysisKey]model.QuestionAnalysis{},
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.questions {
		s.questions[k] = v
	}
	for k, v := range db.quizzes {
		v.QuestionIDs = append([]uuid.UUID(nil), v.QuestionIDs...)
		s.quizzes[k] = v
	}
	for k, v := range db.subs {
		s.subs[k] = v
	}
	for k, v := range db.analyses {
		s.analyses[k] = v
	}
	return s
}

func (db *memDB) restoreLocked(s memSnapshot) {
	db.users, db.questions, db.quizzes, db.subs, db.analyses = s.users, s.questions, s.quizzes, s.subs, s.analyses
}

// EditQuiz holds the lock like RunInTx does.
func (db *memDB) EditQuiz(_ context.Context, fn func(QuizTx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshotLocked()
	if err := fn(memQuizTx{db: db}); err != nil {
		db.restoreLocked(snap)
		return err
	}
	return nil
}

type memQuizTx struct{ db *memDB }

func (t memQuizTx) LockQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, ok := t.db.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.db.onQuizLocked != nil {
		t.db.onQuizLocked()
	}
	q.QuestionIDs = append([]uuid.UUID(nil), q.QuestionIDs...)
	return &q, nil
}

func (t memQuizTx) LockOwnedQuestions(_ context.Context, owner uuid.UUID, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		if q, ok := t.db.questions[id]; ok && q.CreatedBy == owner {
			n++
		}
	}
	return n, nil
}

func (t memQuizTx) CreateQuiz(_ context.Context, q *model.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q.ID = uuid.New()
	q.IsActive = false
	t.db.quizzes[q.ID] = *q
	return nil
}

func (t memQuizTx) UpdateQuiz(_ context.Context, q *model.Quiz) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if _, ok := t.db.quizzes[q.ID]; !ok {
		return repository.ErrNotFound
	}
	q.QuestionIDs = append([]uuid.UUID(nil), q.QuestionIDs...)
	t.db.quizzes[q.ID] = *q
	return nil
}

func (t memQuizTx) SetQuizActive(_ context.Context, id uuid.UUID, active bool) error {
	q, ok := t.db.quizzes[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.IsActive = active
	t.db.quizzes[id] = q
	return nil
}

// memTx runs with db.mu already held.
type memTx struct{ db *memDB }

func (t memTx) fail(op string) error {
	if t.db.failOn == op {
		return errInjected
	}
	return nil
}

func (t memTx) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := t.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (t memTx) LockQuestion(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q, ok := t.db.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (t memTx) GetQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, ok := t.db.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	q.QuestionIDs = append([]uuid.UUID(nil), q.QuestionIDs...)
	return &q, nil
}

func (t memTx) LockQuizzesContaining(_ context.Context, questionID uuid.UUID) ([]model.Quiz, error) {
	out := []model.Quiz{}
	for _, q := range t.db.quizzes {
		if q.Contains(questionID) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (t memTx) QuizIDsByOwner(_ context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id, q := range t.db.quizzes {
		if q.CreatedBy == owner {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t memTx) QuestionIDsByOwner(_ context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for id, q := range t.db.questions {
		if q.CreatedBy == owner {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t memTx) RemoveQuestionFromQuizzes(_ context.Context, questionID uuid.UUID) (int64, error) {
	if err := t.fail("RemoveQuestionFromQuizzes"); err != nil {
		return 0, err
	}
	var n int64
	for id, q := range t.db.quizzes {
		if !q.Contains(questionID) {
			continue
		}
		kept := make([]uuid.UUID, 0, len(q.QuestionIDs))
		for _, qid := range q.QuestionIDs {
			if qid != questionID {
				kept = append(kept, qid)
			}
		}
		q.QuestionIDs = kept
		t.db.quizzes[id] = q
		n++
	}
	return n, nil
}

func (t memTx) DeactivateQuiz(_ context.Context, id uuid.UUID) error {
	if err := t.fail("DeactivateQuiz"); err != nil {
		return err
	}
	q := t.db.quizzes[id]
	q.IsActive = false
	t.db.quizzes[id] = q
	return nil
}

func (t memTx) DeleteQuestion(_ context.Context, id uuid.UUID) (int64, error) {
	if err := t.fail("DeleteQuestion"); err != nil {
		return 0, err
	}
	if _, ok := t.db.questions[id]; !ok {
		return 0, nil
	}
	delete(t.db.questions, id)
	return 1, nil
}

func (t memTx) DeleteQuiz(_ context.Context, id uuid.UUID) (int64, error) {
	if err := t.fail("DeleteQuiz"); err != nil {
		return 0, err
	}
	if _, ok := t.db.quizzes[id]; !ok {
		return 0, nil
	}
	delete(t.db.quizzes, id)
	return 1, nil
}

func (t memTx) DeleteUser(_ context.Context, id uuid.UUID) (int64, error) {
	if err := t.fail("DeleteUser"); err != nil {
		return 0, err
	}
	if _, ok := t.db.users[id]; !ok {
		return 0, nil
	}
	delete(t.db.users, id)
	return 1, nil
}

func (t memTx) DeleteSubmissionsByQuiz(_ context.Context, quizID uuid.UUID) (int64, error) {
	if err := t.fail("DeleteSubmissionsByQuiz"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range t.db.subs {
		if s.QuizID == quizID {
			delete(t.db.subs, id)
			n++
		}
	}
	return n, nil
}

func (t memTx) DeleteSubmissionsByStudent(_ context.Context, studentID uuid.UUID) (int64, error) {
	if err := t.fail("DeleteSubmissionsByStudent"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range t.db.subs {
		if s.StudentID == studentID {
			delete(t.db.subs, id)
			n++
		}
	}
	return n, nil
}

func (t memTx) DeleteAnalysesByQuestions(_ context.Context, questionIDs []uuid.UUID) (int64, error) {
	if err := t.fail("DeleteAnalysesByQuestions"); err != nil {
		return 0, err
	}
	set := map[uuid.UUID]bool{}
	for _, id := range questionIDs {
		set[id] = true
	}
	var n int64
	for k := range t.db.analyses {
		if set[k.question] {
			delete(t.db.analyses, k)
			n++
		}
	}
	return n, nil
}

func (t memTx) DeleteAnalysesByQuiz(_ context.Context, quizID uuid.UUID) (int64, error) {
	if err := t.fail("DeleteAnalysesByQuiz"); err != nil {
		return 0, err
	}
	var n int64
	for k := range t.db.analyses {
		if k.quiz == quizID {
			delete(t.db.analyses, k)
			n++
		}
	}
	return n, nil
}

// ─── Orphans ────────────────────────────────────────────────────────

type fakeOrphans struct{ db *memDB }

func (f fakeOrphans) OrphanSubmissionIDs(_ context.Context) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ids := []uuid.UUID{}
	for id, s := range f.db.subs {
		if f.submissionOrphanLocked(s) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f fakeOrphans) DeleteSubmissionIfOrphan(_ context.Context, id uuid.UUID) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.subs[id]
	if !ok {
		return false, nil
	}
	if !f.submissionOrphanLocked(s) {
		return false, nil
	}
	delete(f.db.subs, id)
	return true, nil
}

func (f fakeOrphans) submissionOrphanLocked(s model.Submission) bool {
	_, quiz := f.db.quizzes[s.QuizID]
	_, student := f.db.users[s.StudentID]
	return !quiz || !student
}

func (f fakeOrphans) orphanLocked(k analysisKey) bool {
	_, q := f.db.questions[k.question]
	_, z := f.db.quizzes[k.quiz]
	return !q || !z
}

func (f fakeOrphans) OrphanAnalysisIDs(_ context.Context) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ids := []uuid.UUID{}
	for k, a := range f.db.analyses {
		if f.orphanLocked(k) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (f fakeOrphans) DeleteAnalysisIfOrphan(_ context.Context, id uuid.UUID) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for k, a := range f.db.analyses {
		if a.ID == id && f.orphanLocked(k) {
			delete(f.db.analyses, k)
			return true, nil
		}
	}
	return false, nil
}

func (f fakeOrphans) QuizzesWithDanglingQuestions(_ context.Context) ([]model.Quiz, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Quiz{}
	for _, q := range f.db.quizzes {
		for _, qid := range q.QuestionIDs {
			if _, ok := f.db.questions[qid]; !ok {
				q.QuestionIDs = append([]uuid.UUID(nil), q.QuestionIDs...)
				out = append(out, q)
				break
			}
		}
	}
	return out, nil
}

func (f fakeOrphans) ExistingQuestionIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []uuid.UUID{}
	for _, id := range ids {
		if _, ok := f.db.questions[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f fakeOrphans) ReplaceQuizQuestions(_ context.Context, quizID uuid.UUID, old, repaired []uuid.UUID) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	q, ok := f.db.quizzes[quizID]
	if !ok || !equalIDs(q.QuestionIDs, old) {
		return false, nil
	}
	q.QuestionIDs = append([]uuid.UUID(nil), repaired...)
	if len(repaired) == 0 {
		q.IsActive = false
	}
	f.db.quizzes[quizID] = q
	return true, nil
}

func equalIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
