package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"homework-service/internal/cache"
	"homework-service/internal/models"
	"homework-service/internal/scoring"
)

// HomeworkStore is the persistence surface the service needs for homework
// documents. MaterializeQuestions must be an atomic compare-and-set: it
// installs the set only when the stored document still has no questions and
// reports whether this caller won.
type HomeworkStore interface {
	Create(ctx context.Context, hw *models.Homework) error
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	FindByClassroom(ctx context.Context, classroomID string) ([]models.Homework, error)
	MaterializeQuestions(ctx context.Context, id string, questions []models.Question) (bool, error)
	ReplaceQuestions(ctx context.Context, id string, questions []models.Question) error
	Deactivate(ctx context.Context, id string) error
}

type SubmissionStore interface {
	Upsert(ctx context.Context, sub *models.Submission) error
	FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Submission, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
}

type ProfileStore interface {
	Get(ctx context.Context, studentID string) (*models.StudentProfile, error)
	Upsert(ctx context.Context, profile *models.StudentProfile) error
}

type ClassroomStore interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

// QuestionGenerator produces a complete, valid question set. It never fails;
// a degraded backend yields synthetic fallback questions.
type QuestionGenerator interface {
	Generate(ctx context.Context, subjectMatter string, profile *models.StudentProfile) []models.Question
}

// ProfileUpdater derives and merges learning-style profiles from scored
// submissions.
type ProfileUpdater interface {
	Derive(ctx context.Context, questions []models.Question, answers models.AnswerSet) models.StudentProfile
	Apply(previous *models.StudentProfile, latest models.StudentProfile) models.StudentProfile
}

const (
	minDescriptionRunes      = 200
	minDescriptionParagraphs = 2
	materializeAttempts      = 2
)

type HomeworkService struct {
	homeworks   HomeworkStore
	submissions SubmissionStore
	profiles    ProfileStore
	classrooms  ClassroomStore
	generator   QuestionGenerator
	profiler    ProfileUpdater
	scorer      *scoring.Engine
	cache       *cache.ProfileCache
}

func NewHomeworkService(
	homeworks HomeworkStore,
	submissions SubmissionStore,
	profiles ProfileStore,
	classrooms ClassroomStore,
	generator QuestionGenerator,
	profiler ProfileUpdater,
	scorer *scoring.Engine,
	profileCache *cache.ProfileCache,
) *HomeworkService {
	return &HomeworkService{
		homeworks:   homeworks,
		submissions: submissions,
		profiles:    profiles,
		classrooms:  classrooms,
		generator:   generator,
		profiler:    profiler,
		scorer:      scorer,
		cache:       profileCache,
	}
}

type CreateHomeworkInput struct {
	ClassroomID string     `json:"classroom_id" binding:"required"`
	Title       string     `json:"title"`
	Description string     `json:"description" binding:"required"`
	Subject     string     `json:"subject"`
	Difficulty  string     `json:"difficulty"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateHomework validates the subject-matter text, checks the caller may
// manage the classroom, and stores the homework with an empty question set.
// Questions are generated lazily on first student access.
func (s *HomeworkService) CreateHomework(ctx context.Context, teacherID string, input CreateHomeworkInput) (*models.Homework, error) {
	description := strings.TrimSpace(input.Description)
	if err := validateSubjectMatter(description); err != nil {
		return nil, err
	}

	classroom, err := s.classrooms.FindByID(ctx, input.ClassroomID)
	if err != nil {
		return nil, err
	}
	if classroom == nil {
		return nil, ErrClassroomNotFound
	}
	if !classroom.CanManage(teacherID) {
		return nil, ErrForbidden
	}

	hw := &models.Homework{
		ClassroomID: input.ClassroomID,
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(input.Title),
		Description: description,
		Subject:     strings.TrimSpace(input.Subject),
		Difficulty:  strings.TrimSpace(input.Difficulty),
		Questions:   []models.Question{},
		DueDate:     input.DueDate,
		IsActive:    true,
	}
	if hw.Title == "" {
		hw.Title = "Homework - " + time.Now().Format("2006-01-02")
	}
	if hw.Subject == "" {
		hw.Subject = "General"
	}
	if hw.Difficulty == "" {
		hw.Difficulty = "medium"
	}

	if err := s.homeworks.Create(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

func validateSubjectMatter(description string) error {
	if len([]rune(description)) < minDescriptionRunes {
		return validationErr(fmt.Sprintf("description must be at least %d characters of subject matter", minDescriptionRunes))
	}
	paragraphs := 0
	for _, p := range strings.Split(description, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	if paragraphs < minDescriptionParagraphs {
		return validationErr(fmt.Sprintf("description must contain at least %d paragraphs separated by blank lines", minDescriptionParagraphs))
	}
	return nil
}

// EnsureQuestions returns the homework with its question set materialized,
// generating it on first access. Concurrent callers race through a
// storage-level compare-and-set; exactly one generated set wins and every
// caller observes that winner. The requesting student's profile, when one
// exists, personalizes the generation.
func (s *HomeworkService) EnsureQuestions(ctx context.Context, homeworkID, studentID string) (*models.Homework, error) {
	hw, err := s.loadForStudent(ctx, homeworkID, studentID)
	if err != nil {
		return nil, err
	}
	if hw.Materialized() {
		return hw, nil
	}

	profile := s.loadProfile(ctx, studentID)

	for attempt := 0; attempt < materializeAttempts; attempt++ {
		questions := s.generator.Generate(ctx, hw.Description, profile)
		won, err := s.homeworks.MaterializeQuestions(ctx, hw.ID, questions)
		if err != nil {
			return nil, err
		}
		if won {
			hw.Questions = questions
			return hw, nil
		}
		// Lost the race; re-read the winner's set.
		hw, err = s.homeworks.FindByID(ctx, homeworkID)
		if err != nil {
			return nil, err
		}
		if hw == nil {
			return nil, ErrNotFound
		}
		if hw.Materialized() {
			return hw, nil
		}
	}
	return nil, ErrNotReady
}

// loadProfile is cache-aside over the profile store. Any failure means
// generation proceeds unpersonalized.
func (s *HomeworkService) loadProfile(ctx context.Context, studentID string) *models.StudentProfile {
	if profile, ok := s.cache.Get(ctx, studentID); ok {
		return profile
	}
	profile, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		log.Printf("profile lookup failed for student %s: %v", studentID, err)
		return nil
	}
	if profile != nil {
		s.cache.Set(ctx, profile)
	}
	return profile
}

type SubmitInput struct {
	Answers          models.AnswerSet `json:"answers" binding:"required"`
	TimeSpentMinutes int              `json:"time_spent_minutes"`
}

type SubmitResult struct {
	Submission *models.Submission `json:"submission"`
	Scoring    scoring.Result     `json:"result"`
}

// Submit scores the answers against the stored question set, upserts the
// submission for the (homework, student) pair, and refreshes the student's
// learning profile. Profile refresh failures are logged, never returned;
// scoring and persistence are what the student's grade depends on.
func (s *HomeworkService) Submit(ctx context.Context, homeworkID, studentID string, input SubmitInput) (*SubmitResult, error) {
	hw, err := s.loadForStudent(ctx, homeworkID, studentID)
	if err != nil {
		return nil, err
	}
	if !hw.Materialized() {
		return nil, ErrNotReady
	}

	result := s.scorer.Score(hw.Questions, input.Answers)

	sub := &models.Submission{
		HomeworkID:       hw.ID,
		StudentID:        studentID,
		Answers:          input.Answers,
		Score:            result.Score,
		TotalQuestions:   result.TotalQuestions,
		TimeSpentMinutes: input.TimeSpentMinutes,
	}
	if err := s.submissions.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	s.refreshProfile(ctx, studentID, hw.Questions, input.Answers)

	return &SubmitResult{Submission: sub, Scoring: result}, nil
}

// refreshProfile runs the personalization loop after a graded submission.
// Every failure here is logged and swallowed.
func (s *HomeworkService) refreshProfile(ctx context.Context, studentID string, questions []models.Question, answers models.AnswerSet) {
	latest := s.profiler.Derive(ctx, questions, answers)
	latest.StudentID = studentID

	previous, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		log.Printf("profile refresh skipped for student %s, lookup failed: %v", studentID, err)
		return
	}

	merged := s.profiler.Apply(previous, latest)
	merged.StudentID = studentID
	if err := s.profiles.Upsert(ctx, &merged); err != nil {
		log.Printf("profile refresh failed for student %s: %v", studentID, err)
		return
	}
	s.cache.Set(ctx, &merged)
}

// RegenerateQuestions discards the current question set and generates a new
// one. Teacher only, and not personalized to any single student.
func (s *HomeworkService) RegenerateQuestions(ctx context.Context, homeworkID, userID string) (*models.Homework, error) {
	hw, err := s.homeworks.FindByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if hw == nil {
		return nil, ErrNotFound
	}
	if err := s.requireManager(ctx, hw, userID); err != nil {
		return nil, err
	}
	if !hw.IsActive {
		return nil, ErrInactive
	}

	questions := s.generator.Generate(ctx, hw.Description, nil)
	if err := s.homeworks.ReplaceQuestions(ctx, hw.ID, questions); err != nil {
		return nil, err
	}
	hw.Questions = questions
	return hw, nil
}

func (s *HomeworkService) GetHomework(ctx context.Context, homeworkID string) (*models.Homework, error) {
	hw, err := s.homeworks.FindByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if hw == nil {
		return nil, ErrNotFound
	}
	return hw, nil
}

func (s *HomeworkService) ListClassroomHomework(ctx context.Context, classroomID, userID string) ([]models.Homework, error) {
	classroom, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom == nil {
		return nil, ErrClassroomNotFound
	}
	if !classroom.CanManage(userID) && !classroom.HasStudent(userID) {
		return nil, ErrForbidden
	}
	return s.homeworks.FindByClassroom(ctx, classroomID)
}

// StudentHomework is a homework entry enriched with the requesting
// student's submission state.
type StudentHomework struct {
	models.Homework
	IsSubmitted bool       `json:"is_submitted"`
	Score       *int       `json:"score,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// ListStudentHomework lists a classroom's active homework annotated with
// whether the student already submitted and what they scored.
func (s *HomeworkService) ListStudentHomework(ctx context.Context, classroomID, studentID string) ([]StudentHomework, error) {
	classroom, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if classroom == nil {
		return nil, ErrClassroomNotFound
	}
	if !classroom.HasStudent(studentID) {
		return nil, ErrForbidden
	}

	homeworks, err := s.homeworks.FindByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	out := make([]StudentHomework, 0, len(homeworks))
	for _, hw := range homeworks {
		entry := StudentHomework{Homework: hw}
		sub, err := s.submissions.FindByHomeworkAndStudent(ctx, hw.ID, studentID)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			entry.IsSubmitted = true
			score := sub.Score
			entry.Score = &score
			submittedAt := sub.SubmittedAt
			entry.SubmittedAt = &submittedAt
		}
		out = append(out, entry)
	}
	return out, nil
}

// GradeEntry is one row of a student's grade history.
type GradeEntry struct {
	HomeworkID    string    `json:"homework_id"`
	HomeworkTitle string    `json:"homework_title"`
	Subject       string    `json:"subject"`
	Score         int       `json:"score"`
	MaxPoints     int       `json:"max_points"`
	Percentage    int       `json:"percentage"`
	Grade         string    `json:"grade"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// StudentGrades returns the student's graded submissions, newest first.
func (s *HomeworkService) StudentGrades(ctx context.Context, studentID string) ([]GradeEntry, error) {
	subs, err := s.submissions.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	grades := make([]GradeEntry, 0, len(subs))
	for _, sub := range subs {
		entry := GradeEntry{
			HomeworkID:  sub.HomeworkID,
			Score:       sub.Score,
			MaxPoints:   scoring.PointsPerQuestion * sub.TotalQuestions,
			SubmittedAt: sub.SubmittedAt,
		}
		if entry.MaxPoints > 0 {
			entry.Percentage = sub.Score * 100 / entry.MaxPoints
		}
		entry.Grade = scoring.LetterGrade(entry.Percentage)

		hw, err := s.homeworks.FindByID(ctx, sub.HomeworkID)
		if err != nil {
			return nil, err
		}
		if hw != nil {
			entry.HomeworkTitle = hw.Title
			entry.Subject = hw.Subject
		}
		grades = append(grades, entry)
	}
	return grades, nil
}

func (s *HomeworkService) GetSubmission(ctx context.Context, homeworkID, studentID string) (*models.Submission, error) {
	return s.submissions.FindByHomeworkAndStudent(ctx, homeworkID, studentID)
}

func (s *HomeworkService) GetProfile(ctx context.Context, studentID string) (models.StudentProfile, error) {
	if profile, ok := s.cache.Get(ctx, studentID); ok {
		return *profile, nil
	}
	profile, err := s.profiles.Get(ctx, studentID)
	if err != nil {
		return models.StudentProfile{}, err
	}
	if profile == nil {
		neutral := models.NeutralProfile()
		neutral.StudentID = studentID
		return neutral, nil
	}
	s.cache.Set(ctx, profile)
	return *profile, nil
}

// Deactivate soft-deletes a homework. Existing submissions stay readable.
func (s *HomeworkService) Deactivate(ctx context.Context, homeworkID, userID string) error {
	hw, err := s.homeworks.FindByID(ctx, homeworkID)
	if err != nil {
		return err
	}
	if hw == nil {
		return ErrNotFound
	}
	if err := s.requireManager(ctx, hw, userID); err != nil {
		return err
	}
	return s.homeworks.Deactivate(ctx, homeworkID)
}

func (s *HomeworkService) requireManager(ctx context.Context, hw *models.Homework, userID string) error {
	if userID == hw.TeacherID {
		return nil
	}
	classroom, err := s.classrooms.FindByID(ctx, hw.ClassroomID)
	if err != nil {
		return err
	}
	if classroom == nil || !classroom.CanManage(userID) {
		return ErrForbidden
	}
	return nil
}

// loadForStudent fetches an active homework and checks the student is
// enrolled in its classroom.
func (s *HomeworkService) loadForStudent(ctx context.Context, homeworkID, studentID string) (*models.Homework, error) {
	hw, err := s.homeworks.FindByID(ctx, homeworkID)
	if err != nil {
		return nil, err
	}
	if hw == nil {
		return nil, ErrNotFound
	}
	if !hw.IsActive {
		return nil, ErrInactive
	}

	classroom, err := s.classrooms.FindByID(ctx, hw.ClassroomID)
	if err != nil {
		return nil, err
	}
	if classroom == nil || !classroom.HasStudent(studentID) {
		return nil, ErrForbidden
	}
	return hw, nil
}
