package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow-api/internal/models"
	"taskflow-api/internal/optional"
	"taskflow-api/internal/pagination"
	"taskflow-api/internal/policy"
	"taskflow-api/internal/realtime"
	"taskflow-api/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher receives an event after each successful mutation.
type Publisher interface {
	Publish(evt realtime.Event, recipients ...string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(realtime.Event, ...string) {}

// TaskServiceOptions configures a TaskService. Zero values fall back to
// UTC, time.Now, no events and the standard logrus logger.
type TaskServiceOptions struct {
	Location  *time.Location
	Now       func() time.Time
	Publisher Publisher
	Logger    logrus.FieldLogger
}

// TaskService implements the task lifecycle on top of the repositories.
type TaskService struct {
	tasks     *repository.TaskRepository
	users     *UserDirectory
	policy    *policy.Policy
	loc       *time.Location
	now       func() time.Time
	publisher Publisher
	log       logrus.FieldLogger
}

// NewTaskService wires a TaskService.
func NewTaskService(tasks *repository.TaskRepository, users *UserDirectory, pol *policy.Policy, opts TaskServiceOptions) *TaskService {
	s := &TaskService{
		tasks:     tasks,
		users:     users,
		policy:    pol,
		loc:       opts.Location,
		now:       opts.Now,
		publisher: opts.Publisher,
		log:       opts.Logger,
	}
	if s.policy == nil {
		s.policy = policy.New(policy.ModeAssignee)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// clock returns the evaluation time in the configured timezone.
func (s *TaskService) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *TaskService) publish(eventType string, task *models.Task, actorID string, recipients ...string) {
	s.publisher.Publish(realtime.Event{
		Type:       eventType,
		TaskID:     task.ID,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
		Version:    1,
	}, recipients...)
}

// CreateTaskInput is the payload for Create.
type CreateTaskInput struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	DueDate       string  `json:"due_date"`
	Priority      string  `json:"priority"`
	AssigneeEmail string  `json:"assignee_email"`
}

// UpdateTaskInput holds the fields of a partial update. Absent fields are
// left untouched; only description accepts null.
type UpdateTaskInput struct {
	Title       optional.Value[string] `json:"title"`
	Description optional.Value[string] `json:"description"`
	DueDate     optional.Value[string] `json:"due_date"`
	Priority    optional.Value[string] `json:"priority"`
	IsCompleted optional.Value[bool]   `json:"is_completed"`
}

// ListTasksInput holds the list query.
type ListTasksInput struct {
	Priority string
	Status   string
	Page     int
	PerPage  int
}

// TaskPage is one page of the actor's tasks.
type TaskPage struct {
	Tasks []models.Task   `json:"data"`
	Meta  pagination.Meta `json:"meta"`
}

// TaskStats counts the actor's tasks per derived status.
type TaskStats struct {
	Total    int64 `json:"total"`
	Done     int64 `json:"done"`
	Missed   int64 `json:"missed_late"`
	DueToday int64 `json:"due_today"`
	Upcoming int64 `json:"upcoming"`
}

func validateTitle(v *ValidationError, title string) {
	switch {
	case title == "":
		v.Add("title", "The title field is required.")
	case utf8.RuneCountInString(title) > models.MaxTitleLength:
		v.Add("title", fmt.Sprintf("The title field must not be greater than %d characters.", models.MaxTitleLength))
	}
}

func normalizeDescription(d string) *string {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil
	}
	return &d
}

func (s *TaskService) resolveAssignee(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.ResolveEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fieldError("assignee_email", "The selected assignee email is invalid.", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}
	return user, nil
}

// Create stores a new task owned by creatorID and assigned by email.
func (s *TaskService) Create(ctx context.Context, creatorID string, in CreateTaskInput) (*models.Task, error) {
	now := s.clock()
	verr := &ValidationError{}

	title := strings.TrimSpace(in.Title)
	validateTitle(verr, title)

	due, ok := time.Time{}, false
	if strings.TrimSpace(in.DueDate) == "" {
		verr.Add("due_date", "The due date field is required.")
	} else if due, ok = parseDueDate(in.DueDate, s.loc); !ok {
		verr.Add("due_date", "The due date field must be a valid date.")
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		p, ok := models.ParsePriority(in.Priority)
		if !ok {
			verr.Add("priority", "The selected priority is invalid.")
		}
		priority = p
	}

	email := strings.TrimSpace(in.AssigneeEmail)
	if email == "" {
		verr.Add("assignee_email", "The assignee email field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, email)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		CreatorID:   creatorID,
		AssigneeID:  assignee.ID,
		Title:       title,
		DueDate:     due.UTC(),
		Priority:    priority,
		IsCompleted: false,
	}
	if in.Description != nil {
		task.Description = normalizeDescription(*in.Description)
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"creator_id":  creatorID,
		"assignee_id": task.AssigneeID,
	}).Info("task created")
	s.publish(realtime.EventTaskCreated, task, creatorID, task.CreatorID, task.AssigneeID)

	task.Assignee = assignee
	return task.WithStatus(now), nil
}

// Get returns a task with its creator and assignee.
func (s *TaskService) Get(ctx context.Context, actorID, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByIDWithUsers(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(policy.ActionView, actorID, task); err != nil {
		return nil, err
	}
	return task.WithStatus(s.clock()), nil
}

// Update merges the present fields of in into the task.
func (s *TaskService) Update(ctx context.Context, actorID, taskID string, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(policy.ActionUpdate, actorID, task); err != nil {
		return nil, err
	}

	now := s.clock()
	verr := &ValidationError{}
	var columns []string

	if in.Title.Set {
		if in.Title.Null {
			verr.Add("title", "The title field is required.")
		} else {
			title := strings.TrimSpace(in.Title.Value)
			validateTitle(verr, title)
			task.Title = title
			columns = append(columns, "title")
		}
	}
	if in.Description.Set {
		if in.Description.Null {
			task.Description = nil
		} else {
			task.Description = normalizeDescription(in.Description.Value)
		}
		columns = append(columns, "description")
	}
	if in.DueDate.Set {
		if in.DueDate.Null {
			verr.Add("due_date", "The due date field is required.")
		} else if due, ok := parseDueDate(in.DueDate.Value, s.loc); !ok {
			verr.Add("due_date", "The due date field must be a valid date.")
		} else {
			task.DueDate = due.UTC()
			columns = append(columns, "due_date")
		}
	}
	if in.Priority.Set {
		p, ok := models.ParsePriority(in.Priority.Value)
		if in.Priority.Null || !ok {
			verr.Add("priority", "The selected priority is invalid.")
		} else {
			task.Priority = p
			columns = append(columns, "priority")
		}
	}
	if in.IsCompleted.Set {
		if in.IsCompleted.Null {
			verr.Add("is_completed", "The is completed field must be true or false.")
		} else {
			task.IsCompleted = in.IsCompleted.Value
			columns = append(columns, "is_completed")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if len(columns) > 0 {
		if err := s.tasks.UpdateColumns(ctx, task, columns...); err != nil {
			return nil, err
		}
		s.publish(realtime.EventTaskUpdated, task, actorID, task.CreatorID, task.AssigneeID)
	}
	return task.WithStatus(now), nil
}

// ToggleCompletion flips is_completed.
func (s *TaskService) ToggleCompletion(ctx context.Context, actorID, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(policy.ActionUpdate, actorID, task); err != nil {
		return nil, err
	}

	now := s.clock()
	task.IsCompleted = !task.IsCompleted
	if err := s.tasks.UpdateColumns(ctx, task, "is_completed"); err != nil {
		return nil, err
	}
	s.publish(realtime.EventTaskCompletionToggle, task, actorID, task.CreatorID, task.AssigneeID)
	return task.WithStatus(now), nil
}

// Assign hands the task to the user registered under assigneeEmail.
func (s *TaskService) Assign(ctx context.Context, actorID, taskID, assigneeEmail string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(policy.ActionAssign, actorID, task); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(assigneeEmail)
	if email == "" {
		return nil, NewValidationError("assignee_email", "The assignee email field is required.")
	}
	assignee, err := s.resolveAssignee(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	previous := task.AssigneeID
	task.AssigneeID = assignee.ID
	if err := s.tasks.UpdateColumns(ctx, task, "assignee_id"); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"from":     previous,
		"to":       task.AssigneeID,
		"actor_id": actorID,
	}).Info("task assigned")
	s.publish(realtime.EventTaskAssigned, task, actorID, task.CreatorID, task.AssigneeID, previous)

	task.Assignee = assignee
	return task.WithStatus(now), nil
}

// Delete removes the task permanently.
func (s *TaskService) Delete(ctx context.Context, actorID, taskID string) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(policy.ActionDelete, actorID, task); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "actor_id": actorID}).Info("task deleted")
	s.publish(realtime.EventTaskDeleted, task, actorID, task.CreatorID, task.AssigneeID)
	return nil
}

// List returns one page of the tasks assigned to actorID. The status filter
// is applied to the page after slicing, so a page can hold fewer rows than
// per_page while meta still describes the unfiltered slice.
func (s *TaskService) List(ctx context.Context, actorID string, in ListTasksInput) (*TaskPage, error) {
	verr := &ValidationError{}

	var priority models.TaskPriority
	if in.Priority != "" {
		p, ok := models.ParsePriority(in.Priority)
		if !ok {
			verr.Add("priority", "The selected priority is invalid.")
		}
		priority = p
	}
	var status models.DerivedStatus
	if in.Status != "" {
		st, ok := models.ParseDerivedStatus(in.Status)
		if !ok {
			verr.Add("status", "The selected status is invalid.")
		}
		status = st
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	params := pagination.NewParams(in.Page, in.PerPage)
	filter := repository.TaskFilter{AssigneeID: actorID, Priority: priority}
	tasks, total, err := s.tasks.ListAssigned(ctx, filter, params.Offset(), params.PerPage)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		tasks[i].WithStatus(now)
		if status != "" && tasks[i].DerivedStatus != status {
			continue
		}
		out = append(out, tasks[i])
	}

	return &TaskPage{
		Tasks: out,
		Meta:  pagination.NewMeta(params, total, len(tasks)),
	}, nil
}

// Stats counts the tasks assigned to actorID by derived status.
func (s *TaskService) Stats(ctx context.Context, actorID string) (*TaskStats, error) {
	rows, err := s.tasks.StatusInputs(ctx, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	stats := &TaskStats{Total: int64(len(rows))}
	for _, t := range rows {
		switch models.DeriveStatus(t.IsCompleted, t.DueDate, now) {
		case models.StatusDone:
			stats.Done++
		case models.StatusMissed:
			stats.Missed++
		case models.StatusDueToday:
			stats.DueToday++
		case models.StatusUpcoming:
			stats.Upcoming++
		}
	}
	return stats, nil
}
