// Package lifecycle holds the authorization rules for report state
// transitions. The functions are pure: callers pass the resolved role or
// uid together with a freshly read report and act on the verdict.
//
//	create (farmer) -> Pending -> verify (official) -> Verified
//	Pending -> delete (owner) -> removed
//
// Verified is terminal.
package lifecycle

import (
	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/repository"
)

// AuthorizeCreate allows only farmers to submit reports.
func AuthorizeCreate(role model.Role) error {
	if role != model.RoleFarmer {
		return repository.ErrForbidden
	}
	return nil
}

// AuthorizeDelete allows the owner to delete a report while it is still
// Pending. A verified report cannot be deleted by anyone.
func AuthorizeDelete(actorUID string, r *model.DamageReport) error {
	if r.Status != model.StatusPending {
		return repository.ErrInvalidTransition
	}
	if actorUID == "" || r.FarmerID != actorUID {
		return repository.ErrForbidden
	}
	return nil
}

// AuthorizeVerify allows officials to verify a Pending report. Verifying
// an already verified report is allowed and reported as noop so that the
// caller skips side effects.
func AuthorizeVerify(role model.Role, r *model.DamageReport) (noop bool, err error) {
	if err := AuthorizeReview(role); err != nil {
		return false, err
	}
	return r.Status == model.StatusVerified, nil
}

// AuthorizeReview allows officials to see the full, unfiltered report set
// and to act on it.
func AuthorizeReview(role model.Role) error {
	if role != model.RoleOfficial {
		return repository.ErrForbidden
	}
	return nil
}

// CanView reports whether a report is visible on the public surfaces.
// Officials and the owner always see it; everyone else sees Pending
// reports only when hideUnverified is off.
func CanView(p Viewer, r *model.DamageReport, hideUnverified bool) bool {
	if !hideUnverified || r.Status == model.StatusVerified {
		return true
	}
	return p.Role == model.RoleOfficial || (p.UID != "" && p.UID == r.FarmerID)
}

// Viewer is the optional caller of a read operation. The zero value is an
// anonymous visitor.
type Viewer struct {
	UID  string
	Role model.Role
}
