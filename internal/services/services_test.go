package services

import (
	"sync"
	"testing"
	"time"

	"taskflow-api/internal/cache"
	"taskflow-api/internal/models"
	"taskflow-api/internal/policy"
	"taskflow-api/internal/realtime"
	"taskflow-api/internal/repository"
	"taskflow-api/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type published struct {
	evt        realtime.Event
	recipients []string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(evt realtime.Event, recipients ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{evt: evt, recipients: recipients})
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	db    *gorm.DB
	tasks *TaskService
	repo  *repository.TaskRepository
	users *UserDirectory
	pub   *recordingPublisher
	log   *logrus.Logger
	hook  *test.Hook

	alice models.User
	bob   models.User
	carol models.User
}

func newFixture(t *testing.T, mode policy.Mode) *fixture {
	t.Helper()
	db := testutil.MustDB(t)
	log, hook := test.NewNullLogger()

	f := &fixture{
		db:    db,
		repo:  repository.NewTaskRepository(db),
		pub:   &recordingPublisher{},
		log:   log,
		hook:  hook,
		alice: testutil.CreateUser(t, db, "Alice Creator", "alice@example.com"),
		bob:   testutil.CreateUser(t, db, "Bob Assignee", "bob@example.com"),
		carol: testutil.CreateUser(t, db, "Carol Outsider", "carol@example.com"),
	}
	userCache := cache.NewSimpleCache[string, models.User](cache.Options{Now: func() time.Time { return fixedNow }})
	f.users = NewUserDirectory(repository.NewUserRepository(db), userCache, time.Minute)
	f.tasks = NewTaskService(f.repo, f.users, policy.New(mode), TaskServiceOptions{
		Location:  time.UTC,
		Now:       func() time.Time { return fixedNow },
		Publisher: f.pub,
		Logger:    log,
	})
	return f
}
