package model

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// FieldError describes one offending field of a rejected record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a record violates a field constraint.
// It lists every offending field, not only the first one found.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the offending fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// maxLen adds a field error when v has more than limit characters. The
// limits follow the column widths of the schema.
func (e *ValidationError) maxLen(field, v string, limit int) {
	if utf8.RuneCountInString(v) > limit {
		e.add(field, "must be at most %d characters", limit)
	}
}

// NormalizeReport trims free-text fields, applies the default land unit
// and collapses duplicate needs while keeping first-seen order.
func NormalizeReport(r *DamageReport) {
	r.FarmerName = strings.TrimSpace(r.FarmerName)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	r.Province = strings.TrimSpace(r.Province)
	r.District = strings.TrimSpace(r.District)
	r.DSDivision = strings.TrimSpace(r.DSDivision)
	r.GNDivision = strings.TrimSpace(r.GNDivision)
	r.CultivationNature = strings.TrimSpace(r.CultivationNature)
	r.DamageType = strings.TrimSpace(r.DamageType)
	r.Severity = strings.TrimSpace(r.Severity)
	r.LandUnit = strings.TrimSpace(r.LandUnit)
	if r.LandUnit == "" {
		r.LandUnit = DefaultLandUnit
	}
	seen := make(map[string]struct{}, len(r.NeedsList))
	needs := make([]string, 0, len(r.NeedsList))
	for _, n := range r.NeedsList {
		n = strings.TrimSpace(n)
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		needs = append(needs, n)
	}
	r.NeedsList = needs
	if r.Images == nil {
		r.Images = []string{}
	}
}

// ValidateReport checks the submitted fields of a report. Lifecycle
// fields (status, is_verified, created_at, report_id) are owned by the
// store and are not inspected here.
func ValidateReport(r *DamageReport) error {
	ve := &ValidationError{}

	if strings.TrimSpace(r.FarmerID) == "" {
		ve.add("farmer_id", "required")
	}
	switch {
	case r.Province == "":
		ve.add("province", "required")
	case DistrictsByProvince[r.Province] == nil:
		ve.add("province", "unknown province %q", r.Province)
	}
	switch {
	case r.District == "":
		ve.add("district", "required")
	case DistrictsByProvince[r.Province] != nil && !ValidDistrict(r.Province, r.District):
		ve.add("district", "%q is not a district of %q", r.District, r.Province)
	}
	if r.DSDivision == "" {
		ve.add("ds_division", "required")
	}
	if r.GNDivision == "" {
		ve.add("gn_division", "required")
	}
	ve.maxLen("farmer_id", r.FarmerID, 128)
	ve.maxLen("farmer_name", r.FarmerName, 255)
	ve.maxLen("contact_number", r.ContactNumber, 32)
	ve.maxLen("province", r.Province, 64)
	ve.maxLen("district", r.District, 64)
	ve.maxLen("ds_division", r.DSDivision, 128)
	ve.maxLen("gn_division", r.GNDivision, 128)
	if !contains(CultivationTypes, r.CultivationNature) {
		ve.add("cultivation_nature", "must be one of %s", strings.Join(CultivationTypes, ", "))
	}
	if !contains(DamageTypes, r.DamageType) {
		ve.add("damage_type", "must be one of %s", strings.Join(DamageTypes, ", "))
	}
	if !contains(SeverityLevels, r.Severity) {
		ve.add("severity", "must be one of %s", strings.Join(SeverityLevels, ", "))
	}
	if math.IsNaN(r.LandSize) || math.IsInf(r.LandSize, 0) || r.LandSize <= 0 {
		ve.add("land_size", "must be a positive number")
	}
	if !contains(LandUnits, r.LandUnit) {
		ve.add("land_unit", "must be one of %s", strings.Join(LandUnits, ", "))
	}
	for _, n := range r.NeedsList {
		if !IsNeed(n) {
			ve.add("needs_list", "unknown need %q", n)
		}
	}
	if c := r.Coordinates; c != nil {
		if c.Lat < -90 || c.Lat > 90 || math.IsNaN(c.Lat) {
			ve.add("coordinates", "latitude %.6f is out of range [-90, 90]", c.Lat)
		}
		if c.Lng < -180 || c.Lng > 180 || math.IsNaN(c.Lng) {
			ve.add("coordinates", "longitude %.6f is out of range [-180, 180]", c.Lng)
		}
	}

	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// ValidateProfile checks a signup profile.
func ValidateProfile(p *UserProfile) error {
	ve := &ValidationError{}
	if strings.TrimSpace(p.UID) == "" {
		ve.add("uid", "required")
	}
	if !p.Role.Valid() {
		ve.add("role", "must be farmer, official or public")
	}
	if strings.TrimSpace(p.Name) == "" {
		ve.add("name", "required")
	}
	if p.Role == RoleFarmer && strings.TrimSpace(p.NIC) == "" {
		ve.add("nic", "required for farmers")
	}
	ve.maxLen("uid", p.UID, 128)
	ve.maxLen("name", p.Name, 255)
	ve.maxLen("phone", p.Phone, 32)
	ve.maxLen("home_district", p.HomeDistrict, 64)
	ve.maxLen("nic", p.NIC, 16)
	ve.maxLen("division_assigned", p.DivisionAssigned, 128)
	ve.maxLen("email", p.Email, 255)
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
