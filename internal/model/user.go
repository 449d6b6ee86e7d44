package model

import "time"

// Role is the access role stored on a user profile. Roles are assigned
// at signup and never change afterwards.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleOfficial Role = "official"
	RolePublic   Role = "public"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleOfficial, RolePublic:
		return true
	}
	return false
}

// UserProfile represents a row in the `user_profiles` table. The uid is
// the subject issued by the external identity provider, so the profile
// is looked up by uid rather than by email.
//
// Fields:
//  UID              – identity provider subject (primary key).
//  Role             – farmer, official or public.
//  Name             – display name.
//  Phone            – contact number, used to prefill reports.
//  HomeDistrict     – district the user lives in.
//  NIC              – national identity card number (farmers only).
//  DivisionAssigned – division an official is responsible for.
//  Email            – optional contact email.
//  CreatedAt        – timestamp of creation.
type UserProfile struct {
	UID              string    `json:"uid"`
	Role             Role      `json:"role"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	HomeDistrict     string    `json:"home_district"`
	NIC              string    `json:"nic,omitempty"`
	DivisionAssigned string    `json:"division_assigned,omitempty"`
	Email            string    `json:"email,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
