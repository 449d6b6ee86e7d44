// Package identity maps an authenticated subject to an application
// principal. The external identity provider vouches only for the uid; the
// role always comes from the stored profile so a client cannot elevate
// itself by editing token claims.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/repository"
)

// ErrUnauthenticated is returned when there is no subject or the subject
// has no profile yet. Handlers translate it into HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ProfileStore is the subset of the profile repository the resolver needs.
type ProfileStore interface {
	GetByUID(ctx context.Context, uid string) (*model.UserProfile, error)
	Create(ctx context.Context, p *model.UserProfile) error
}

// Principal is the resolved caller of an operation.
type Principal struct {
	UID  string
	Role model.Role
}

// Resolver looks up profiles on every call. Roles are immutable after
// signup, so there is nothing to invalidate, but nothing is cached either.
type Resolver struct {
	profiles ProfileStore
}

// NewResolver returns a Resolver backed by profiles.
func NewResolver(profiles ProfileStore) *Resolver {
	if profiles == nil {
		panic("identity: nil profile store")
	}
	return &Resolver{profiles: profiles}
}

// Resolve returns the principal for uid. A missing profile yields
// ErrUnauthenticated; store failures are returned as is.
func (r *Resolver) Resolve(ctx context.Context, uid string) (Principal, error) {
	p, err := r.Profile(ctx, uid)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UID: p.UID, Role: p.Role}, nil
}

// Profile returns the full profile of uid with the same error contract
// as Resolve.
func (r *Resolver) Profile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, ErrUnauthenticated
	}
	p, err := r.profiles.GetByUID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Register creates the profile of a newly signed up subject. Only the
// farmer and public roles can be chosen at signup; official accounts are
// provisioned by the seeder. A second signup for the same uid returns
// repository.ErrConflict.
func (r *Resolver) Register(ctx context.Context, uid string, p *model.UserProfile) error {
	if strings.TrimSpace(uid) == "" {
		return ErrUnauthenticated
	}
	p.UID = uid
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.HomeDistrict = strings.TrimSpace(p.HomeDistrict)
	p.NIC = strings.TrimSpace(p.NIC)
	p.Email = strings.TrimSpace(p.Email)
	if p.Role == model.RoleOfficial {
		return repository.ErrForbidden
	}
	// Officials only: a signup cannot claim a division.
	p.DivisionAssigned = ""
	if err := model.ValidateProfile(p); err != nil {
		return err
	}
	return r.profiles.Create(ctx, p)
}
