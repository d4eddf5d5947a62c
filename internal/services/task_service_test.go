package services

import (
	"context"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"taskflow-api/internal/models"
	"taskflow-api/internal/optional"
	"taskflow-api/internal/policy"
	"taskflow-api/internal/realtime"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func (f *fixture) create(t *testing.T, in CreateTaskInput) *models.Task {
	t.Helper()
	if in.AssigneeEmail == "" {
		in.AssigneeEmail = f.bob.Email
	}
	if in.DueDate == "" {
		in.DueDate = "2025-06-16"
	}
	if in.Title == "" {
		in.Title = "Task"
	}
	task, err := f.tasks.Create(context.Background(), f.alice.ID, in)
	require.NoError(t, err)
	return task
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, field)
}

func TestCreate_PayInvoiceScenario(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	task, err := f.tasks.Create(context.Background(), f.alice.ID, CreateTaskInput{
		Title:         "Pay invoice",
		DueDate:       "2025-06-16",
		AssigneeEmail: "bob@example.com",
	})
	require.NoError(t, err)

	require.Equal(t, models.PriorityMedium, task.Priority)
	require.False(t, task.IsCompleted)
	require.Equal(t, models.StatusUpcoming, task.DerivedStatus)
	require.Equal(t, f.alice.ID, task.CreatorID)
	require.Equal(t, f.bob.ID, task.AssigneeID)
	require.Nil(t, task.Description)

	stored, err := f.repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.Equal(t, "Pay invoice", stored.Title)

	evt := f.pub.last()
	require.Equal(t, realtime.EventTaskCreated, evt.evt.Type)
	require.ElementsMatch(t, []string{f.alice.ID, f.bob.ID}, evt.recipients)
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, f.alice.ID, CreateTaskInput{Priority: "urgent", DueDate: "soon"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "title")
	require.Contains(t, verr.Fields, "due_date")
	require.Contains(t, verr.Fields, "priority")
	require.Contains(t, verr.Fields, "assignee_email")

	_, err = f.tasks.Create(ctx, f.alice.ID, CreateTaskInput{
		Title:         strings.Repeat("x", models.MaxTitleLength+1),
		DueDate:       "2025-06-16",
		AssigneeEmail: f.bob.Email,
	})
	requireFieldError(t, err, "title")

	_, err = f.tasks.Create(ctx, f.alice.ID, CreateTaskInput{
		Title:         "Ghost",
		DueDate:       "2025-06-16",
		AssigneeEmail: "nobody@example.com",
	})
	requireFieldError(t, err, "assignee_email")
	require.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
	require.Zero(t, f.pub.count())
}

func TestCreate_EmailMatchIsExact(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	_, err := f.tasks.Create(context.Background(), f.alice.ID, CreateTaskInput{
		Title:         "Case",
		DueDate:       "2025-06-16",
		AssigneeEmail: "Bob@Example.com",
	})
	requireFieldError(t, err, "assignee_email")
}

func TestCreate_DueDateLayouts(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)

	cases := map[string]models.DerivedStatus{
		"2025-06-14T23:00:00Z": models.StatusMissed,
		"2025-06-15 08:00:00":  models.StatusDueToday,
		"2025-06-15":           models.StatusDueToday,
		"16 Jun 2025":          models.StatusUpcoming,
	}
	for raw, want := range cases {
		task := f.create(t, CreateTaskInput{DueDate: raw})
		require.Equal(t, want, task.DerivedStatus, raw)
		require.Equal(t, time.UTC, task.DueDate.Location())
	}
}

func TestCreate_KeepsDescriptionAndPriority(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	task := f.create(t, CreateTaskInput{Description: strPtr("  details "), Priority: "high"})
	require.Equal(t, models.PriorityHigh, task.Priority)
	require.NotNil(t, task.Description)
	require.Equal(t, "details", *task.Description)
}

func TestGet_AssigneeOnlyByDefault(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{})

	got, err := f.tasks.Get(ctx, f.bob.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	require.Equal(t, f.alice.Email, got.Creator.Email)
	require.Equal(t, models.StatusUpcoming, got.DerivedStatus)

	_, err = f.tasks.Get(ctx, f.alice.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.tasks.Get(ctx, f.bob.ID, "missing")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGet_SharedModeLetsCreatorView(t *testing.T) {
	f := newFixture(t, policy.ModeShared)
	task := f.create(t, CreateTaskInput{})

	_, err := f.tasks.Get(context.Background(), f.alice.ID, task.ID)
	require.NoError(t, err)
	_, err = f.tasks.Get(context.Background(), f.carol.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdate_MergesOnlyPresentFields(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{Title: "Original", Description: strPtr("keep me"), Priority: "low"})

	updated, err := f.tasks.Update(ctx, f.bob.ID, task.ID, UpdateTaskInput{
		Title:       optional.Some("Renamed"),
		IsCompleted: optional.Some(true),
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, models.StatusDone, updated.DerivedStatus)

	stored, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", stored.Title)
	require.True(t, stored.IsCompleted)
	require.Equal(t, models.PriorityLow, stored.Priority)
	require.NotNil(t, stored.Description)
	require.Equal(t, "keep me", *stored.Description)
	require.True(t, stored.DueDate.Equal(task.DueDate))

	require.Equal(t, realtime.EventTaskUpdated, f.pub.last().evt.Type)
}

func TestUpdate_ExplicitFalseAndNullDescription(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{Description: strPtr("text")})

	_, err := f.tasks.Update(ctx, f.bob.ID, task.ID, UpdateTaskInput{IsCompleted: optional.Some(true)})
	require.NoError(t, err)

	_, err = f.tasks.Update(ctx, f.bob.ID, task.ID, UpdateTaskInput{
		IsCompleted: optional.Some(false),
		Description: optional.Null[string](),
	})
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.False(t, stored.IsCompleted)
	require.Nil(t, stored.Description)
}

func TestUpdate_RejectsInvalidFieldsWithoutWriting(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{Title: "Stable"})
	events := f.pub.count()

	_, err := f.tasks.Update(ctx, f.bob.ID, task.ID, UpdateTaskInput{
		Title:    optional.Some("Changed"),
		Priority: optional.Some("urgent"),
		DueDate:  optional.Null[string](),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "priority")
	require.Contains(t, verr.Fields, "due_date")

	_, err = f.tasks.Update(ctx, f.bob.ID, task.ID, UpdateTaskInput{Title: optional.Some("   ")})
	requireFieldError(t, err, "title")

	stored, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Stable", stored.Title)
	require.Equal(t, events, f.pub.count())
}

func TestUpdate_Authorization(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{Title: "Mine"})

	for _, actor := range []string{f.alice.ID, f.carol.ID, ""} {
		_, err := f.tasks.Update(ctx, actor, task.ID, UpdateTaskInput{Title: optional.Some("Hijacked")})
		require.ErrorIs(t, err, ErrForbidden)
	}
	_, err := f.tasks.Update(ctx, f.bob.ID, "missing", UpdateTaskInput{})
	require.ErrorIs(t, err, ErrTaskNotFound)

	stored, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Mine", stored.Title)
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	task := f.create(t, CreateTaskInput{})
	events := f.pub.count()

	got, err := f.tasks.Update(context.Background(), f.bob.ID, task.ID, UpdateTaskInput{})
	require.NoError(t, err)
	require.Equal(t, task.Title, got.Title)
	require.Equal(t, events, f.pub.count())
}

func TestToggleCompletion_Pairs(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{DueDate: "2025-06-14"})

	first, err := f.tasks.ToggleCompletion(ctx, f.bob.ID, task.ID)
	require.NoError(t, err)
	require.True(t, first.IsCompleted)
	require.Equal(t, models.StatusDone, first.DerivedStatus)

	second, err := f.tasks.ToggleCompletion(ctx, f.bob.ID, task.ID)
	require.NoError(t, err)
	require.False(t, second.IsCompleted)
	require.Equal(t, models.StatusMissed, second.DerivedStatus)

	_, err = f.tasks.ToggleCompletion(ctx, f.alice.ID, task.ID)
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, realtime.EventTaskCompletionToggle, f.pub.last().evt.Type)
}

func TestAssign_ChangesOnlyAssignee(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{Title: "Handoff", Description: strPtr("notes"), Priority: "high"})
	before, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	got, err := f.tasks.Assign(ctx, f.alice.ID, task.ID, f.carol.Email)
	require.NoError(t, err)
	require.Equal(t, f.carol.ID, got.AssigneeID)

	after, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, f.carol.ID, after.AssigneeID)
	require.Equal(t, before.Title, after.Title)
	require.Equal(t, *before.Description, *after.Description)
	require.Equal(t, before.Priority, after.Priority)
	require.Equal(t, before.IsCompleted, after.IsCompleted)
	require.Equal(t, before.CreatorID, after.CreatorID)
	require.True(t, before.DueDate.Equal(after.DueDate))

	evt := f.pub.last()
	require.Equal(t, realtime.EventTaskAssigned, evt.evt.Type)
	require.ElementsMatch(t, []string{f.alice.ID, f.carol.ID, f.bob.ID}, evt.recipients)
}

func TestAssign_GuardsAndValidation(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()
	task := f.create(t, CreateTaskInput{})

	_, err := f.tasks.Assign(ctx, f.bob.ID, task.ID, f.carol.Email)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.tasks.Assign(ctx, f.alice.ID, task.ID, "nobody@example.com")
	requireFieldError(t, err, "assignee_email")

	_, err = f.tasks.Assign(ctx, f.alice.ID, task.ID, "  ")
	requireFieldError(t, err, "assignee_email")

	stored, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, f.bob.ID, stored.AssigneeID)
}

func TestDelete_CreatorOrAssignee(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()

	byCreator := f.create(t, CreateTaskInput{Title: "A deletes"})
	require.NoError(t, f.tasks.Delete(ctx, f.alice.ID, byCreator.ID))
	require.Equal(t, realtime.EventTaskDeleted, f.pub.last().evt.Type)

	byAssignee := f.create(t, CreateTaskInput{Title: "B deletes"})
	require.NoError(t, f.tasks.Delete(ctx, f.bob.ID, byAssignee.ID))

	guarded := f.create(t, CreateTaskInput{Title: "C tries"})
	require.ErrorIs(t, f.tasks.Delete(ctx, f.carol.ID, guarded.ID), ErrForbidden)
	_, err := f.repo.FindByID(ctx, guarded.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.tasks.Delete(ctx, f.alice.ID, byCreator.ID), ErrTaskNotFound)
}

func TestList_PriorityAndStatusFilters(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()

	doneHigh := f.create(t, CreateTaskInput{Title: "done high", Priority: "high", DueDate: "2025-06-20"})
	_ = f.create(t, CreateTaskInput{Title: "open high", Priority: "high", DueDate: "2025-06-18"})
	doneLow := f.create(t, CreateTaskInput{Title: "done low", Priority: "low", DueDate: "2025-06-17"})
	_ = f.create(t, CreateTaskInput{Title: "not mine", Priority: "high", AssigneeEmail: f.carol.Email})

	for _, id := range []string{doneHigh.ID, doneLow.ID} {
		_, err := f.tasks.ToggleCompletion(ctx, f.bob.ID, id)
		require.NoError(t, err)
	}

	page, err := f.tasks.List(ctx, f.bob.ID, ListTasksInput{Priority: "high", Status: "Done", Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	for _, task := range page.Tasks {
		require.Equal(t, models.PriorityHigh, task.Priority)
		require.Equal(t, models.StatusDone, task.DerivedStatus)
	}
	require.Equal(t, int64(2), page.Meta.Total)
	require.Equal(t, 1, page.Meta.LastPage)
	require.False(t, page.Meta.HasMore)
}

func TestList_OrderAndPagination(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()

	for _, due := range []string{"2025-06-20", "2025-06-14", "2025-06-15", "2025-06-17"} {
		f.create(t, CreateTaskInput{Title: "due " + due, DueDate: due})
	}

	first, err := f.tasks.List(ctx, f.bob.ID, ListTasksInput{Page: 1, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, first.Tasks, 3)
	require.Equal(t, "due 2025-06-14", first.Tasks[0].Title)
	require.Equal(t, models.StatusMissed, first.Tasks[0].DerivedStatus)
	require.Equal(t, models.StatusDueToday, first.Tasks[1].DerivedStatus)
	require.Equal(t, int64(4), first.Meta.Total)
	require.Equal(t, 2, first.Meta.LastPage)
	require.True(t, first.Meta.HasMore)
	require.NotNil(t, first.Tasks[0].Creator)

	second, err := f.tasks.List(ctx, f.bob.ID, ListTasksInput{Page: 2, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, second.Tasks, 1)
	require.Equal(t, "due 2025-06-20", second.Tasks[0].Title)
	require.Equal(t, 4, *second.Meta.From)
	require.Equal(t, 4, *second.Meta.To)

	// Status filtering happens after slicing: page 1 keeps only the task due
	// on the 17th although the one due on the 20th is Upcoming too.
	filtered, err := f.tasks.List(ctx, f.bob.ID, ListTasksInput{Status: "Upcoming", Page: 1, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, filtered.Tasks, 1)
	require.Equal(t, int64(4), filtered.Meta.Total)
	require.Equal(t, 1, *filtered.Meta.From)
	require.Equal(t, 3, *filtered.Meta.To)
}

func TestList_RejectsUnknownFilters(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	_, err := f.tasks.List(context.Background(), f.bob.ID, ListTasksInput{Priority: "urgent", Status: "done"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "priority")
	require.Contains(t, verr.Fields, "status")
}

func TestList_EmptyPage(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	page, err := f.tasks.List(context.Background(), f.carol.ID, ListTasksInput{})
	require.NoError(t, err)
	require.Empty(t, page.Tasks)
	require.NotNil(t, page.Tasks)
	require.Zero(t, page.Meta.Total)
	require.Equal(t, 1, page.Meta.LastPage)
	require.Nil(t, page.Meta.From)
	require.Nil(t, page.Meta.To)
}

func TestStats_CountsDerivedStatuses(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	ctx := context.Background()

	f.create(t, CreateTaskInput{DueDate: "2025-06-10"})
	f.create(t, CreateTaskInput{DueDate: "2025-06-15"})
	f.create(t, CreateTaskInput{DueDate: "2025-06-30"})
	done := f.create(t, CreateTaskInput{DueDate: "2025-06-30"})
	_, err := f.tasks.ToggleCompletion(ctx, f.bob.ID, done.ID)
	require.NoError(t, err)

	stats, err := f.tasks.Stats(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, &TaskStats{Total: 4, Done: 1, Missed: 1, DueToday: 1, Upcoming: 1}, stats)
}

func TestTaskService_TimezoneShiftsCalendarDay(t *testing.T) {
	f := newFixture(t, policy.ModeAssignee)
	belgrade, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)
	f.tasks.loc = belgrade

	// 23:30 UTC on the 15th is already the 16th in Belgrade, but "now" is
	// still the 15th there, so the task is Upcoming rather than Due Today.
	task := f.create(t, CreateTaskInput{DueDate: "2025-06-15T23:30:00Z"})
	require.Equal(t, models.StatusUpcoming, task.DerivedStatus)

	// Bare dates are read as midnight in Belgrade.
	bare := f.create(t, CreateTaskInput{DueDate: "2025-06-15"})
	require.Equal(t, models.StatusDueToday, bare.DerivedStatus)
	require.True(t, time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC).Equal(bare.DueDate))
}
