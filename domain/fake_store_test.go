package domain

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]User
	projects map[int64]Project
	members  map[int64]map[int64]bool
	desks    map[int64]Desk
	tasks    map[int64]Task
	columns  map[int64]Column

	touched map[int64]time.Time
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]User{},
		projects: map[int64]Project{},
		members:  map[int64]map[int64]bool{},
		desks:    map[int64]Desk{},
		tasks:    map[int64]Task{},
		columns:  map[int64]Column{},
		touched:  map[int64]time.Time{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUsers(ctx context.Context, users []*User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	seen := map[string]bool{}
	for _, u := range f.users {
		seen["l:"+u.Login] = true
		seen["e:"+u.Email] = true
	}
	for _, u := range users {
		if seen["l:"+u.Login] || seen["e:"+u.Email] {
			return ErrConflict
		}
		seen["l:"+u.Login] = true
		seen["e:"+u.Email] = true
	}
	for _, u := range users {
		u.ID = f.id()
		f.users[u.ID] = *u
	}
	return nil
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeStore) UserByLogin(ctx context.Context, login string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Login == login {
			return &u, nil
		}
	}
	return nil, NotFound("user", login)
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, id int64, fn func(*User) error) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, NotFound("user", id)
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	f.users[id] = u
	return &u, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return NotFound("user", id)
	}
	for _, t := range f.tasks {
		if (t.CreatorID != nil && *t.CreatorID == id) || t.ExecutedBy(id) {
			return ErrReferenced
		}
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return NotFound("user", id)
	}
	u.LastLoginDate = at
	f.users[id] = u
	f.touched[id] = at
	return nil
}

func (f *fakeStore) HasAdmin(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Status == StatusAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateProject(ctx context.Context, p *Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range p.MemberIDs {
		if _, ok := f.users[id]; !ok {
			return ErrInvalidReference
		}
	}
	p.ID = f.id()
	f.members[p.ID] = map[int64]bool{}
	for _, id := range p.MemberIDs {
		f.members[p.ID][id] = true
	}
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeStore) project(id int64) Project {
	p := f.projects[id]
	p.MemberIDs = nil
	for uid := range f.members[id] {
		p.MemberIDs = append(p.MemberIDs, uid)
	}
	sort.Slice(p.MemberIDs, func(i, j int) bool { return p.MemberIDs[i] < p.MemberIDs[j] })
	return p
}

func (f *fakeStore) ProjectByID(ctx context.Context, id int64) (*Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return nil, NotFound("project", id)
	}
	p := f.project(id)
	return &p, nil
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Project
	for id := range f.projects {
		out = append(out, f.project(id))
	}
	return out, nil
}

func (f *fakeStore) ProjectsByUser(ctx context.Context, userID int64) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Project
	for id, m := range f.members {
		if m[userID] {
			out = append(out, f.project(id))
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, id int64, fn func(*Project) error) (*Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return nil, NotFound("project", id)
	}
	p := f.project(id)
	if err := fn(&p); err != nil {
		return nil, err
	}
	f.projects[id] = p
	return &p, nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return NotFound("project", id)
	}
	delete(f.projects, id)
	delete(f.members, id)
	return nil
}

func (f *fakeStore) AddProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[projectID]; !ok {
		return false, NotFound("project", projectID)
	}
	if _, ok := f.users[userID]; !ok {
		return false, NotFound("user", userID)
	}
	if f.members[projectID][userID] {
		return false, nil
	}
	f.members[projectID][userID] = true
	return true, nil
}

func (f *fakeStore) RemoveProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[projectID]; !ok {
		return false, NotFound("project", projectID)
	}
	if !f.members[projectID][userID] {
		return false, nil
	}
	delete(f.members[projectID], userID)
	return true, nil
}

func (f *fakeStore) CreateDesk(ctx context.Context, d *Desk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.id()
	for i := range d.Columns {
		d.Columns[i].ID = f.id()
		d.Columns[i].DeskID = d.ID
		f.columns[d.Columns[i].ID] = d.Columns[i]
	}
	f.desks[d.ID] = *d
	return nil
}

func (f *fakeStore) DeskByID(ctx context.Context, id int64) (*Desk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desks[id]
	if !ok {
		return nil, NotFound("desk", id)
	}
	return &d, nil
}

func (f *fakeStore) ListDesks(ctx context.Context) ([]Desk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Desk
	for _, d := range f.desks {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) UpdateDesk(ctx context.Context, id int64, fn func(*Desk) error) (*Desk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desks[id]
	if !ok {
		return nil, NotFound("desk", id)
	}
	if err := fn(&d); err != nil {
		return nil, err
	}
	f.desks[id] = d
	return &d, nil
}

func (f *fakeStore) DeleteDesk(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.desks[id]; !ok {
		return NotFound("desk", id)
	}
	for _, t := range f.tasks {
		if t.DeskID == id {
			return ErrReferenced
		}
	}
	for cid, c := range f.columns {
		if c.DeskID == id {
			delete(f.columns, cid)
		}
	}
	delete(f.desks, id)
	return nil
}

func (f *fakeStore) checkColumn(t *Task) error {
	c, ok := f.columns[t.ColumnID]
	if !ok {
		return ErrInvalidReference
	}
	if c.DeskID != t.DeskID {
		return ErrColumnNotInDesk
	}
	return nil
}

func (f *fakeStore) CreateTask(ctx context.Context, t *Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkColumn(t); err != nil {
		return err
	}
	t.ID = f.id()
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) TaskByID(ctx context.Context, id int64) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, NotFound("task", id)
	}
	return &t, nil
}

func (f *fakeStore) ListTasks(ctx context.Context, flt TaskFilter) ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Task
	for _, t := range f.tasks {
		if flt.DeskID != nil && t.DeskID != *flt.DeskID {
			continue
		}
		if flt.ColumnID != nil && t.ColumnID != *flt.ColumnID {
			continue
		}
		if flt.ExecutorID != nil && !t.ExecutedBy(*flt.ExecutorID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, id int64, fn func(*Task) error) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, NotFound("task", id)
	}
	if err := fn(&t); err != nil {
		return nil, err
	}
	if err := f.checkColumn(&t); err != nil {
		return nil, err
	}
	f.tasks[id] = t
	return &t, nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return NotFound("task", id)
	}
	delete(f.tasks, id)
	return nil
}

// plainHasher keeps tests independent from bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + strings.ToUpper(password), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
