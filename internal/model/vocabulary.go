package model

// NeedAll selects every report in the aid-need filter.
const NeedAll = "All"

// DefaultLandUnit is applied when a submission omits land_unit.
const DefaultLandUnit = "Acres"

// Provinces lists the provinces in display order.
var Provinces = []string{
	"North Central", "Central", "Eastern", "Northern", "Southern",
	"Western", "North Western", "Sabaragamuwa", "Uva",
}

// DistrictsByProvince is the administrative lookup table a report's
// province/district pair is checked against.
var DistrictsByProvince = map[string][]string{
	"North Central": {"Anuradhapura", "Polonnaruwa"},
	"Central":       {"Kandy", "Matale", "Nuwara Eliya"},
	"Eastern":       {"Ampara", "Batticaloa", "Trincomalee"},
	"Northern":      {"Jaffna", "Kilinochchi", "Mannar", "Mullaitivu", "Vavuniya"},
	"Southern":      {"Galle", "Hambantota", "Matara"},
	"Western":       {"Colombo", "Gampaha", "Kalutara"},
	"North Western": {"Kurunegala", "Puttalam"},
	"Sabaragamuwa":  {"Kegalle", "Ratnapura"},
	"Uva":           {"Badulla", "Monaragala"},
}

var (
	CultivationTypes = []string{"Paddy", "Vegetable", "Tea", "Rubber", "Coconut", "Cinnamon", "Fruits"}
	DamageTypes      = []string{"Flood", "Landslide", "Drought", "Wild Elephant Attack", "Pest Attack"}
	SeverityLevels   = []string{"Total Destruction", "Partial", "Minor"}
	NeedsVocabulary  = []string{"Seeds", "Fertilizer", "Labor", "Technology", "Equipment", "Lab Test", "Heavy Machines", "Financial Aid"}
	LandUnits        = []string{"Acres", "Perches", "Hectares"}
)

// ValidDistrict reports whether district belongs to province.
func ValidDistrict(province, district string) bool {
	return contains(DistrictsByProvince[province], district)
}

// IsNeed reports whether s is a member of NeedsVocabulary.
func IsNeed(s string) bool { return contains(NeedsVocabulary, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
