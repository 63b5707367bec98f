package domain

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// DeskService manages desks. New desks always get DefaultColumns.
type DeskService struct {
	st  DeskStore
	pub Publisher
	now func() time.Time
}

func NewDeskService(st DeskStore, pub Publisher) *DeskService {
	return &DeskService{st: st, pub: publisherOrNop(pub), now: time.Now}
}

func (s *DeskService) Create(ctx context.Context, in DeskCreate) (*Desk, error) {
	if err := requireText("name", in.Name, maxNameLen); err != nil {
		return nil, err
	}
	if err := limitText("description", in.Description, maxDescriptionLen); err != nil {
		return nil, err
	}
	if in.AdminID != nil {
		if err := positiveID("adminId", *in.AdminID); err != nil {
			return nil, err
		}
	}
	if in.ProjectID != nil {
		if err := positiveID("projectId", *in.ProjectID); err != nil {
			return nil, err
		}
	}
	d := &Desk{
		Name:        in.Name,
		Description: in.Description,
		IsPrivate:   in.IsPrivate,
		Photo:       in.Photo,
		CreatedAt:   s.now().UTC(),
		AdminID:     in.AdminID,
		ProjectID:   in.ProjectID,
		Columns:     DefaultColumns(),
	}
	if err := s.st.CreateDesk(ctx, d); err != nil {
		return nil, err
	}
	log.WithField("desk", d.ID).Info("desk created with default columns")
	s.pub.Publish(Event{Type: DeskCreated, EntityType: "desk", EntityID: d.ID, Time: s.now().UTC()})
	return d, nil
}

func (s *DeskService) Get(ctx context.Context, id int64) (*Desk, error) {
	return s.st.DeskByID(ctx, id)
}

func (s *DeskService) List(ctx context.Context) ([]Desk, error) {
	return s.st.ListDesks(ctx)
}

func (s *DeskService) Update(ctx context.Context, id int64, upd DeskUpdate) (*Desk, error) {
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
	if v, ok := upd.AdminID.Get(); ok {
		if err := positiveID("adminId", v); err != nil {
			return nil, err
		}
	}
	if v, ok := upd.ProjectID.Get(); ok {
		if err := positiveID("projectId", v); err != nil {
			return nil, err
		}
	}
	d, err := s.st.UpdateDesk(ctx, id, func(d *Desk) error {
		upd.Name.ApplyTo(&d.Name)
		upd.Description.ApplyTo(&d.Description)
		upd.IsPrivate.ApplyTo(&d.IsPrivate)
		upd.AdminID.ApplyToPtr(&d.AdminID)
		upd.ProjectID.ApplyToPtr(&d.ProjectID)
		upd.Photo.ApplyTo(&d.Photo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("desk", id).Info("desk updated")
	return d, nil
}

// Delete removes the desk and its columns. It fails with ErrReferenced while
// tasks remain on the desk.
func (s *DeskService) Delete(ctx context.Context, id int64) error {
	if err := s.st.DeleteDesk(ctx, id); err != nil {
		return err
	}
	log.WithField("desk", id).Info("desk deleted")
	s.pub.Publish(Event{Type: DeskDeleted, EntityType: "desk", EntityID: id, Time: s.now().UTC()})
	return nil
}
