package model

import "time"

// Status is the lifecycle state of a damage report.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
)

// Coordinates is the GPS position captured by the farmer's device.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DamageReport mirrors a row in the `damage_reports` table. The JSON
// names are the wire contract shared with the web client and with data
// migrated from the previous document store, so they must not change.
//
// Fields:
//  ReportID          – store generated identifier.
//  FarmerID          – uid of the farmer who submitted the report.
//  FarmerName        – denormalized profile name at submission time.
//  ContactNumber     – phone number to reach the farmer.
//  Province..GN      – administrative location labels.
//  Coordinates       – optional GPS position, required for the map.
//  CultivationNature – crop under cultivation.
//  DamageType        – cause of damage.
//  LandSize/LandUnit – affected extent.
//  Severity          – extent of the damage.
//  NeedsList         – assistance requested, drawn from NeedsVocabulary.
//  Urgent            – farmer flagged the report as urgent.
//  Images            – blob store URLs in upload order.
//  Status/IsVerified – lifecycle state; IsVerified caches Status == Verified.
//  CreatedAt         – assigned by the store on insert.
type DamageReport struct {
	ReportID          string       `json:"report_id"`
	FarmerID          string       `json:"farmer_id"`
	FarmerName        string       `json:"farmer_name"`
	ContactNumber     string       `json:"contact_number"`
	Province          string       `json:"province"`
	District          string       `json:"district"`
	DSDivision        string       `json:"ds_division"`
	GNDivision        string       `json:"gn_division"`
	Coordinates       *Coordinates `json:"coordinates"`
	CultivationNature string       `json:"cultivation_nature"`
	DamageType        string       `json:"damage_type"`
	LandSize          float64      `json:"land_size"`
	LandUnit          string       `json:"land_unit"`
	Severity          string       `json:"severity"`
	NeedsList         []string     `json:"needs_list"`
	Urgent            bool         `json:"urgent"`
	Images            []string     `json:"images"`
	Status            Status       `json:"status"`
	IsVerified        bool         `json:"is_verified"`
	CreatedAt         time.Time    `json:"created_at"`
}

// HasNeed reports whether the report requests the given need token.
func (r *DamageReport) HasNeed(need string) bool {
	for _, n := range r.NeedsList {
		if n == need {
			return true
		}
	}
	return false
}

// SetStatus updates Status and IsVerified together.
func (r *DamageReport) SetStatus(s Status) {
	r.Status = s
	r.IsVerified = s == StatusVerified
}

// DepartmentContact is a read-only reference row in the
// `department_contacts` table, seeded out-of-band.
type DepartmentContact struct {
	DivisionID   string `json:"division_id"`
	DivisionName string `json:"division_name"`
	OfficerName  string `json:"officer_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}
