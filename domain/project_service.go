package domain

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// ProjectService manages projects and their members.
type ProjectService struct {
	st    ProjectStore
	users UserStore
	pub   Publisher
	now   func() time.Time
}

func NewProjectService(st ProjectStore, users UserStore, pub Publisher) *ProjectService {
	return &ProjectService{st: st, users: users, pub: publisherOrNop(pub), now: time.Now}
}

func (s *ProjectService) Create(ctx context.Context, in ProjectCreate) (*Project, error) {
	if err := requireText("name", in.Name, maxNameLen); err != nil {
		return nil, err
	}
	if err := limitText("description", in.Description, maxDescriptionLen); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = ProjectInProgress
	}
	if !status.Valid() {
		return nil, Invalid("projectStatus", "unknown status")
	}
	if in.AdminID != nil {
		if err := positiveID("adminId", *in.AdminID); err != nil {
			return nil, err
		}
	}
	members := make([]int64, 0, len(in.UserIDs))
	seen := make(map[int64]struct{}, len(in.UserIDs))
	for _, id := range in.UserIDs {
		if err := positiveID("userIds", id); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	p := &Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      status,
		Photo:       in.Photo,
		CreatedAt:   s.now().UTC(),
		AdminUserID: in.AdminID,
		MemberIDs:   members,
	}
	if err := s.st.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	log.WithField("project", p.ID).Info("project created")
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*Project, error) {
	return s.st.ProjectByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]Project, error) {
	return s.st.ListProjects(ctx)
}

// ListByUser returns the projects userID is a member of.
func (s *ProjectService) ListByUser(ctx context.Context, userID int64) ([]Project, error) {
	if _, err := s.users.UserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.st.ProjectsByUser(ctx, userID)
}

func (s *ProjectService) Update(ctx context.Context, id int64, upd ProjectUpdate) (*Project, error) {
	if v, ok := upd.Name.Get(); ok {
		if err := requireText("name", v, maxNameLen); err != nil {
			return nil, err
		}
	}
	if v, ok := upd.Description.Get(); ok {
		if err := limitText("description", v, maxDescriptionLen); err != nil {
			return nil, err
		}
	}
	if v, ok := upd.Status.Get(); ok && !v.Valid() {
		return nil, Invalid("projectStatus", "unknown status")
	}
	if v, ok := upd.AdminID.Get(); ok {
		if err := positiveID("adminId", v); err != nil {
			return nil, err
		}
	}
	p, err := s.st.UpdateProject(ctx, id, func(p *Project) error {
		upd.Name.ApplyTo(&p.Name)
		upd.Description.ApplyTo(&p.Description)
		upd.Photo.ApplyTo(&p.Photo)
		upd.Status.ApplyTo(&p.Status)
		upd.AdminID.ApplyToPtr(&p.AdminUserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("project", id).Info("project updated")
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.st.DeleteProject(ctx, id); err != nil {
		return err
	}
	log.WithField("project", id).Info("project deleted")
	return nil
}

// AddUser makes userID a member. Adding an existing member succeeds without change.
func (s *ProjectService) AddUser(ctx context.Context, projectID, userID int64) error {
	added, err := s.st.AddProjectMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if added {
		s.publishMembership(ProjectMemberAdded, projectID, userID)
	}
	return nil
}

// RemoveUser drops userID from the members. Removing a non-member succeeds without change.
func (s *ProjectService) RemoveUser(ctx context.Context, projectID, userID int64) error {
	removed, err := s.st.RemoveProjectMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if removed {
		s.publishMembership(ProjectMemberRemoved, projectID, userID)
	}
	return nil
}

func (s *ProjectService) publishMembership(typ string, projectID, userID int64) {
	log.WithFields(log.Fields{"project": projectID, "user": userID, "event": typ}).Info("project membership changed")
	s.pub.Publish(Event{
		Type:       typ,
		EntityType: "project",
		EntityID:   projectID,
		Data:       map[string]any{"userId": userID},
		Time:       s.now().UTC(),
	})
}
