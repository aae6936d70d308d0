package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"homework-service/internal/models"
	"homework-service/internal/scoring"
)

// --- in-memory fakes ---

type fakeHomeworkStore struct {
	mu        sync.Mutex
	homeworks map[string]*models.Homework
	nextID    int
}

func newFakeHomeworkStore() *fakeHomeworkStore {
	return &fakeHomeworkStore{homeworks: make(map[string]*models.Homework)}
}

func (s *fakeHomeworkStore) Create(_ context.Context, hw *models.Homework) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	hw.ID = fmt.Sprintf("hw_%d", s.nextID)
	hw.CreatedAt = time.Now()
	hw.UpdatedAt = hw.CreatedAt
	if hw.Questions == nil {
		hw.Questions = []models.Question{}
	}
	clone := *hw
	s.homeworks[hw.ID] = &clone
	return nil
}

func (s *fakeHomeworkStore) FindByID(_ context.Context, id string) (*models.Homework, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw, ok := s.homeworks[id]
	if !ok {
		return nil, nil
	}
	clone := *hw
	clone.Questions = append([]models.Question(nil), hw.Questions...)
	return &clone, nil
}

func (s *fakeHomeworkStore) FindByClassroom(_ context.Context, classroomID string) ([]models.Homework, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Homework
	for _, hw := range s.homeworks {
		if hw.ClassroomID == classroomID && hw.IsActive {
			out = append(out, *hw)
		}
	}
	return out, nil
}

func (s *fakeHomeworkStore) MaterializeQuestions(_ context.Context, id string, questions []models.Question) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw, ok := s.homeworks[id]
	if !ok || len(hw.Questions) > 0 {
		return false, nil
	}
	hw.Questions = append([]models.Question(nil), questions...)
	return true, nil
}

func (s *fakeHomeworkStore) ReplaceQuestions(_ context.Context, id string, questions []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw, ok := s.homeworks[id]
	if !ok {
		return errors.New("not found")
	}
	hw.Questions = append([]models.Question(nil), questions...)
	return nil
}

func (s *fakeHomeworkStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hw, ok := s.homeworks[id]
	if !ok {
		return errors.New("not found")
	}
	hw.IsActive = false
	return nil
}

type fakeSubmissionStore struct {
	mu   sync.Mutex
	subs map[string]*models.Submission
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{subs: make(map[string]*models.Submission)}
}

func subKey(homeworkID, studentID string) string {
	return homeworkID + "|" + studentID
}

func (s *fakeSubmissionStore) Upsert(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.SubmittedAt = time.Now()
	clone := *sub
	s.subs[subKey(sub.HomeworkID, sub.StudentID)] = &clone
	return nil
}

func (s *fakeSubmissionStore) FindByHomeworkAndStudent(_ context.Context, homeworkID, studentID string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subKey(homeworkID, studentID)]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

func (s *fakeSubmissionStore) FindByStudent(_ context.Context, studentID string) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Submission
	for _, sub := range s.subs {
		if sub.StudentID == studentID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.StudentProfile
	getErr   error
	putErr   error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.StudentProfile)}
}

func (s *fakeProfileStore) Get(_ context.Context, studentID string) (*models.StudentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[studentID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (s *fakeProfileStore) Upsert(_ context.Context, profile *models.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	clone := *profile
	s.profiles[profile.StudentID] = &clone
	return nil
}

type fakeClassroomStore struct {
	classrooms map[string]*models.Classroom
}

func (s *fakeClassroomStore) FindByID(_ context.Context, id string) (*models.Classroom, error) {
	c, ok := s.classrooms[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// countingGenerator emits a fresh valid set per call so the winner of a
// materialization race is distinguishable.
type countingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *countingGenerator) Generate(_ context.Context, _ string, _ *models.StudentProfile) []models.Question {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	questions := make([]models.Question, 0, models.QuestionSetSize)
	for i := 0; i < models.MultipleChoiceCount; i++ {
		questions = append(questions, models.Question{
			ID:           fmt.Sprintf("gen%d_mc_%d", n, i),
			Type:         models.QuestionTypeMultipleChoice,
			QuestionText: fmt.Sprintf("MC %d from generation %d?", i, n),
			Choices:      []string{"a", "b", "c", "d"},
			Answer:       0,
		})
	}
	for i := 0; i < models.EssayCount; i++ {
		questions = append(questions, models.Question{
			ID:           fmt.Sprintf("gen%d_essay_%d", n, i),
			Type:         models.QuestionTypeEssay,
			QuestionText: fmt.Sprintf("Essay %d from generation %d?", i, n),
			PromptAnswer: "guideline",
		})
	}
	return questions
}

func (g *countingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type staticProfiler struct{}

func (staticProfiler) Derive(_ context.Context, _ []models.Question, _ models.AnswerSet) models.StudentProfile {
	p := models.NeutralProfile()
	p.PersonalityType = "Derived"
	return p
}

func (staticProfiler) Apply(_ *models.StudentProfile, latest models.StudentProfile) models.StudentProfile {
	return latest
}

// --- fixture ---

const (
	teacherID   = "teacher_1"
	studentID   = "student_1"
	classroomID = "class_1"
)

func subjectMatter() string {
	para := strings.Repeat("Photosynthesis converts light energy into chemical energy. ", 4)
	return para + "\n\n" + para
}

type fixture struct {
	svc         *HomeworkService
	homeworks   *fakeHomeworkStore
	submissions *fakeSubmissionStore
	profiles    *fakeProfileStore
	generator   *countingGenerator
}

func newFixture() *fixture {
	homeworks := newFakeHomeworkStore()
	submissions := newFakeSubmissionStore()
	profiles := newFakeProfileStore()
	classrooms := &fakeClassroomStore{classrooms: map[string]*models.Classroom{
		classroomID: {
			ID:         classroomID,
			TeacherID:  teacherID,
			AdminIDs:   []string{"admin_1"},
			StudentIDs: []string{studentID, "student_2"},
		},
	}}
	gen := &countingGenerator{}

	svc := NewHomeworkService(
		homeworks, submissions, profiles, classrooms,
		gen, staticProfiler{}, scoring.NewEngine(nil), nil,
	)
	return &fixture{svc: svc, homeworks: homeworks, submissions: submissions, profiles: profiles, generator: gen}
}

func (f *fixture) createHomework(t *testing.T) *models.Homework {
	t.Helper()
	hw, err := f.svc.CreateHomework(context.Background(), teacherID, CreateHomeworkInput{
		ClassroomID: classroomID,
		Description: subjectMatter(),
	})
	if err != nil {
		t.Fatalf("CreateHomework: %v", err)
	}
	return hw
}

// --- tests ---

func TestCreateHomework_Defaults(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)

	if !strings.HasPrefix(hw.Title, "Homework - ") {
		t.Errorf("title = %q, want generated default", hw.Title)
	}
	if hw.Subject != "General" || hw.Difficulty != "medium" {
		t.Errorf("defaults not applied: subject=%q difficulty=%q", hw.Subject, hw.Difficulty)
	}
	if !hw.IsActive {
		t.Error("new homework should be active")
	}
	if hw.Questions == nil || len(hw.Questions) != 0 {
		t.Error("new homework should have an empty question set")
	}
}

func TestCreateHomework_RejectsThinSubjectMatter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var validation *ValidationError

	_, err := f.svc.CreateHomework(ctx, teacherID, CreateHomeworkInput{
		ClassroomID: classroomID,
		Description: "too short",
	})
	if !errors.As(err, &validation) {
		t.Fatalf("short description: got %v, want ValidationError", err)
	}

	// Long enough but a single paragraph.
	_, err = f.svc.CreateHomework(ctx, teacherID, CreateHomeworkInput{
		ClassroomID: classroomID,
		Description: strings.Repeat("One long paragraph without blank lines. ", 10),
	})
	if !errors.As(err, &validation) {
		t.Fatalf("single paragraph: got %v, want ValidationError", err)
	}
}

func TestCreateHomework_Authorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateHomework(ctx, studentID, CreateHomeworkInput{
		ClassroomID: classroomID,
		Description: subjectMatter(),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student creating homework: got %v, want ErrForbidden", err)
	}

	if _, err := f.svc.CreateHomework(ctx, "admin_1", CreateHomeworkInput{
		ClassroomID: classroomID,
		Description: subjectMatter(),
	}); err != nil {
		t.Fatalf("classroom admin should be allowed: %v", err)
	}

	if _, err := f.svc.CreateHomework(ctx, teacherID, CreateHomeworkInput{
		ClassroomID: "missing",
		Description: subjectMatter(),
	}); !errors.Is(err, ErrClassroomNotFound) {
		t.Fatalf("unknown classroom: got %v, want ErrClassroomNotFound", err)
	}
}

func TestEnsureQuestions_MaterializesOnce(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	got, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}
	if err := models.ValidateQuestionSet(got.Questions); err != nil {
		t.Fatalf("materialized set invalid: %v", err)
	}

	// Second access reads the stored set without regenerating.
	again, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("second EnsureQuestions: %v", err)
	}
	if again.Questions[0].ID != got.Questions[0].ID {
		t.Error("second access returned a different question set")
	}
	if f.generator.callCount() != 1 {
		t.Errorf("generator called %d times, want 1", f.generator.callCount())
	}
}

func TestEnsureQuestions_ConcurrentAccessAgreesOnWinner(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)

	const workers = 16
	results := make([][]models.Question, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := f.svc.EnsureQuestions(context.Background(), hw.ID, studentID)
			if err != nil {
				errs[n] = err
				return
			}
			results[n] = got.Questions
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}

	stored, err := f.svc.GetHomework(context.Background(), hw.ID)
	if err != nil {
		t.Fatalf("GetHomework: %v", err)
	}
	if err := models.ValidateQuestionSet(stored.Questions); err != nil {
		t.Fatalf("stored set invalid: %v", err)
	}

	// Every caller observed the one persisted set.
	for i, qs := range results {
		if len(qs) != len(stored.Questions) {
			t.Fatalf("worker %d: set size %d, stored %d", i, len(qs), len(stored.Questions))
		}
		for j := range qs {
			if qs[j].ID != stored.Questions[j].ID {
				t.Fatalf("worker %d question %d: id %s, stored %s", i, j, qs[j].ID, stored.Questions[j].ID)
			}
		}
	}

	// Once persisted, later accesses never trigger generation again.
	before := f.generator.callCount()
	if _, err := f.svc.EnsureQuestions(context.Background(), hw.ID, studentID); err != nil {
		t.Fatalf("post-race EnsureQuestions: %v", err)
	}
	if f.generator.callCount() != before {
		t.Error("generator invoked after the set was materialized")
	}
}

func TestEnsureQuestions_AccessControl(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	if _, err := f.svc.EnsureQuestions(ctx, hw.ID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unenrolled student: got %v, want ErrForbidden", err)
	}
	if _, err := f.svc.EnsureQuestions(ctx, "missing", studentID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown homework: got %v, want ErrNotFound", err)
	}

	if err := f.svc.Deactivate(ctx, hw.ID, teacherID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID); !errors.Is(err, ErrInactive) {
		t.Fatalf("deactivated homework: got %v, want ErrInactive", err)
	}
}

func TestSubmit_BeforeMaterializationFails(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)

	_, err := f.svc.Submit(context.Background(), hw.ID, studentID, SubmitInput{Answers: models.AnswerSet{}})
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
}

func TestSubmit_ScoresAndStores(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	materialized, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}

	// Answer every multiple-choice question correctly, skip the essays.
	answers := models.AnswerSet{}
	for _, q := range materialized.Questions {
		if q.Type == models.QuestionTypeMultipleChoice {
			answers[q.ID] = q.Answer
		}
	}

	result, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: answers, TimeSpentMinutes: 25})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Submission.Score != 100 {
		t.Errorf("score = %d, want 100 (10 correct choices)", result.Submission.Score)
	}
	if result.Scoring.MaxPoints != 130 {
		t.Errorf("max points = %d, want 130", result.Scoring.MaxPoints)
	}
	if result.Submission.TimeSpentMinutes != 25 {
		t.Errorf("time spent = %d, want 25", result.Submission.TimeSpentMinutes)
	}

	stored, err := f.svc.GetSubmission(ctx, hw.ID, studentID)
	if err != nil || stored == nil {
		t.Fatalf("GetSubmission: %v, %v", stored, err)
	}
	if stored.Score != 100 {
		t.Errorf("stored score = %d, want 100", stored.Score)
	}
}

func TestSubmit_ResubmissionOverwrites(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	materialized, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}

	if _, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: models.AnswerSet{}}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	answers := models.AnswerSet{}
	for _, q := range materialized.Questions {
		if q.Type == models.QuestionTypeMultipleChoice {
			answers[q.ID] = q.Answer
		}
	}
	if _, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: answers}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	subs, err := f.submissions.FindByStudent(ctx, studentID)
	if err != nil {
		t.Fatalf("FindByStudent: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("stored %d submissions, want 1", len(subs))
	}
	if subs[0].Score != 100 {
		t.Errorf("stored score = %d, want the resubmitted 100", subs[0].Score)
	}
}

func TestSubmit_RefreshesProfile(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	if _, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID); err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}
	if _, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: models.AnswerSet{}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	profile, err := f.profiles.Get(ctx, studentID)
	if err != nil {
		t.Fatalf("profile Get: %v", err)
	}
	if profile == nil {
		t.Fatal("submission did not persist a profile")
	}
	if profile.PersonalityType != "Derived" {
		t.Errorf("personality type = %q, want Derived", profile.PersonalityType)
	}
	if profile.StudentID != studentID {
		t.Errorf("student id = %q, want %q", profile.StudentID, studentID)
	}
}

func TestSubmit_ProfileFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	if _, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID); err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}

	f.profiles.putErr = errors.New("profile store down")
	result, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: models.AnswerSet{}})
	if err != nil {
		t.Fatalf("Submit should survive a profile store failure: %v", err)
	}
	if result.Submission == nil {
		t.Fatal("submission missing from result")
	}
}

func TestRegenerateQuestions_ReplacesSet(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	first, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}

	regenerated, err := f.svc.RegenerateQuestions(ctx, hw.ID, teacherID)
	if err != nil {
		t.Fatalf("RegenerateQuestions: %v", err)
	}
	if err := models.ValidateQuestionSet(regenerated.Questions); err != nil {
		t.Fatalf("regenerated set invalid: %v", err)
	}
	if regenerated.Questions[0].ID == first.Questions[0].ID {
		t.Error("regeneration kept the old question set")
	}

	if _, err := f.svc.RegenerateQuestions(ctx, hw.ID, studentID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student regenerating: got %v, want ErrForbidden", err)
	}
}

func TestListStudentHomework_AnnotatesSubmissionState(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	entries, err := f.svc.ListStudentHomework(ctx, classroomID, studentID)
	if err != nil {
		t.Fatalf("ListStudentHomework: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].IsSubmitted {
		t.Error("homework marked submitted before any submission")
	}

	if _, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID); err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}
	if _, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: models.AnswerSet{}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	entries, err = f.svc.ListStudentHomework(ctx, classroomID, studentID)
	if err != nil {
		t.Fatalf("ListStudentHomework after submit: %v", err)
	}
	if !entries[0].IsSubmitted || entries[0].Score == nil {
		t.Fatal("entry not annotated with submission state")
	}
	if *entries[0].Score != 0 {
		t.Errorf("annotated score = %d, want 0", *entries[0].Score)
	}

	if _, err := f.svc.ListStudentHomework(ctx, classroomID, "stranger"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unenrolled listing: got %v, want ErrForbidden", err)
	}
}

func TestStudentGrades(t *testing.T) {
	f := newFixture()
	hw := f.createHomework(t)
	ctx := context.Background()

	materialized, err := f.svc.EnsureQuestions(ctx, hw.ID, studentID)
	if err != nil {
		t.Fatalf("EnsureQuestions: %v", err)
	}
	answers := models.AnswerSet{}
	for _, q := range materialized.Questions {
		if q.Type == models.QuestionTypeMultipleChoice {
			answers[q.ID] = q.Answer
		}
	}
	if _, err := f.svc.Submit(ctx, hw.ID, studentID, SubmitInput{Answers: answers}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	grades, err := f.svc.StudentGrades(ctx, studentID)
	if err != nil {
		t.Fatalf("StudentGrades: %v", err)
	}
	if len(grades) != 1 {
		t.Fatalf("got %d grade entries, want 1", len(grades))
	}
	entry := grades[0]
	if entry.Score != 100 || entry.MaxPoints != 130 {
		t.Errorf("score %d/%d, want 100/130", entry.Score, entry.MaxPoints)
	}
	if entry.Percentage != 76 || entry.Grade != "C" {
		t.Errorf("percentage %d grade %s, want 76 C", entry.Percentage, entry.Grade)
	}
	if entry.HomeworkTitle != hw.Title {
		t.Errorf("title %q, want %q", entry.HomeworkTitle, hw.Title)
	}
}

func TestGetProfile_NeutralWhenUnassessed(t *testing.T) {
	f := newFixture()

	profile, err := f.svc.GetProfile(context.Background(), studentID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.PersonalityType != models.NeutralProfile().PersonalityType {
		t.Errorf("personality type = %q, want neutral fallback", profile.PersonalityType)
	}
	if profile.StudentID != studentID {
		t.Errorf("student id = %q", profile.StudentID)
	}
}
