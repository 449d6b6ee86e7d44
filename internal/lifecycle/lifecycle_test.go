package lifecycle

import (
	"errors"
	"testing"

	"github.com/iliyamo/agrirelief/internal/model"
	"github.com/iliyamo/agrirelief/internal/repository"
)

func report(owner string, s model.Status) *model.DamageReport {
	r := &model.DamageReport{ReportID: "r1", FarmerID: owner}
	r.SetStatus(s)
	return r
}

func TestAuthorizeCreate(t *testing.T) {
	tests := []struct {
		role model.Role
		want error
	}{
		{model.RoleFarmer, nil},
		{model.RoleOfficial, repository.ErrForbidden},
		{model.RolePublic, repository.ErrForbidden},
		{"", repository.ErrForbidden},
	}
	for _, tc := range tests {
		if got := AuthorizeCreate(tc.role); !errors.Is(got, tc.want) {
			t.Errorf("AuthorizeCreate(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestAuthorizeDelete(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		rep   *model.DamageReport
		want  error
	}{
		{"owner pending", "f1", report("f1", model.StatusPending), nil},
		{"stranger pending", "f2", report("f1", model.StatusPending), repository.ErrForbidden},
		{"anonymous pending", "", report("f1", model.StatusPending), repository.ErrForbidden},
		{"owner verified", "f1", report("f1", model.StatusVerified), repository.ErrInvalidTransition},
		{"stranger verified", "f2", report("f1", model.StatusVerified), repository.ErrInvalidTransition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AuthorizeDelete(tc.actor, tc.rep); !errors.Is(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAuthorizeVerify(t *testing.T) {
	noop, err := AuthorizeVerify(model.RoleOfficial, report("f1", model.StatusPending))
	if err != nil || noop {
		t.Errorf("pending: noop=%v err=%v", noop, err)
	}
	noop, err = AuthorizeVerify(model.RoleOfficial, report("f1", model.StatusVerified))
	if err != nil || !noop {
		t.Errorf("verified: want noop success, got noop=%v err=%v", noop, err)
	}
	for _, role := range []model.Role{model.RoleFarmer, model.RolePublic, ""} {
		if _, err := AuthorizeVerify(role, report("f1", model.StatusPending)); !errors.Is(err, repository.ErrForbidden) {
			t.Errorf("role %q: want ErrForbidden, got %v", role, err)
		}
	}
}

func TestCanView(t *testing.T) {
	pending := report("f1", model.StatusPending)
	verified := report("f1", model.StatusVerified)
	anon := Viewer{}
	owner := Viewer{UID: "f1", Role: model.RoleFarmer}
	official := Viewer{UID: "o1", Role: model.RoleOfficial}

	if !CanView(anon, pending, false) {
		t.Error("pending reports are public when the policy is off")
	}
	if CanView(anon, pending, true) {
		t.Error("pending report visible to anonymous viewer with policy on")
	}
	if !CanView(owner, pending, true) || !CanView(official, pending, true) {
		t.Error("owner and officials always see pending reports")
	}
	if !CanView(anon, verified, true) {
		t.Error("verified reports are always visible")
	}
}

func TestAuthorizeReview(t *testing.T) {
	if err := AuthorizeReview(model.RoleOfficial); err != nil {
		t.Errorf("official: %v", err)
	}
	for _, role := range []model.Role{model.RoleFarmer, model.RolePublic} {
		if err := AuthorizeReview(role); !errors.Is(err, repository.ErrForbidden) {
			t.Errorf("%s: want ErrForbidden, got %v", role, err)
		}
	}
}
