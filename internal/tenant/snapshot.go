package tenant

import (
	"sync"

	"github.com/planora/notify/internal/domain"
)

// snapshot is the listener's before-image cache. Live change feeds only
// carry the new state of a record, but update and delete notifications
// need the prior state (for diffing and for addressing a deleted task's
// assignees), so the listener keeps the last state it saw per record.
// Values are replaced wholesale, never mutated, so a handler can hold a
// returned pointer while the cache moves on.
type snapshot struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
}

func newSnapshot() *snapshot {
	return &snapshot{
		projects: map[string]*domain.Project{},
		tasks:    map[string]*domain.Task{},
	}
}

// prime seeds the cache from a full read of the tenant's projects and
// tasks, taken before subscribing. A re-prime after a feed reconnect
// replaces the cache entirely so records deleted while disconnected do
// not linger.
func (s *snapshot) prime(projects []domain.Project, tasks []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[string]*domain.Project, len(projects))
	s.tasks = make(map[string]*domain.Task, len(tasks))
	for i := range projects {
		p := projects[i]
		s.projects[p.ID] = &p
	}
	for i := range tasks {
		t := tasks[i]
		s.tasks[t.ID] = &t
	}
}

func (s *snapshot) project(id string) *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects[id]
}

func (s *snapshot) rememberProject(p *domain.Project) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

func (s *snapshot) forgetProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
}

func (s *snapshot) task(id string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *snapshot) rememberTask(t *domain.Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *snapshot) forgetTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}
