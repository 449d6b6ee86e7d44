// Package aidmap derives the public aid map from the chronological report
// listing: the need filter, marker placement and classification, and the
// GeoJSON projection served to map clients. Every function is pure and
// leaves its input untouched.
package aidmap

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/iliyamo/agrirelief/internal/model"
)

// Category is the triage class of a map marker.
type Category string

const (
	CategoryUrgent  Category = "urgent-red"
	CategoryFlood   Category = "flood-blue"
	CategoryGeneral Category = "general-green"
)

// Center is the default map centre (centre of Sri Lanka) and zoom level.
var Center = struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}{Lat: 7.8731, Lng: 80.7718, Zoom: 8}

// MarkerCategory classifies a damage type. Landslides are urgent, floods
// get their own class and everything else is general.
func MarkerCategory(damageType string) Category {
	switch damageType {
	case "Landslide":
		return CategoryUrgent
	case "Flood":
		return CategoryFlood
	default:
		return CategoryGeneral
	}
}

// ParseNeed normalizes the need query parameter. An empty value selects
// every report, like "All"; anything outside the vocabulary is rejected.
func ParseNeed(raw string) (string, error) {
	need := strings.TrimSpace(raw)
	if need == "" || strings.EqualFold(need, model.NeedAll) {
		return model.NeedAll, nil
	}
	if !model.IsNeed(need) {
		return "", &model.ValidationError{Fields: []model.FieldError{{
			Field:   "need",
			Message: fmt.Sprintf("must be %q or one of %s", model.NeedAll, strings.Join(model.NeedsVocabulary, ", ")),
		}}}
	}
	return need, nil
}

// FilterByNeed returns the reports whose needs_list contains need, in
// their original order. For "All" the input is returned unchanged.
func FilterByNeed(reports []model.DamageReport, need string) []model.DamageReport {
	if need == model.NeedAll {
		return reports
	}
	out := make([]model.DamageReport, 0, len(reports))
	for i := range reports {
		if reports[i].HasNeed(need) {
			out = append(out, reports[i])
		}
	}
	return out
}

// Placed drops reports without coordinates. They stay in tabular views
// but cannot be put on the map.
func Placed(reports []model.DamageReport) []model.DamageReport {
	out := make([]model.DamageReport, 0, len(reports))
	for i := range reports {
		if reports[i].Coordinates != nil {
			out = append(out, reports[i])
		}
	}
	return out
}

// NeedCounts returns, for every need in the vocabulary, how many of the
// given reports request it. The "All" entry holds the total.
func NeedCounts(reports []model.DamageReport) map[string]int {
	counts := make(map[string]int, len(model.NeedsVocabulary)+1)
	for _, n := range model.NeedsVocabulary {
		counts[n] = 0
	}
	for i := range reports {
		for _, n := range reports[i].NeedsList {
			if _, ok := counts[n]; ok {
				counts[n]++
			}
		}
	}
	counts[model.NeedAll] = len(reports)
	return counts
}

// FeatureCollection projects the placed reports into GeoJSON point
// features. Properties carry what a marker popup shows.
func FeatureCollection(reports []model.DamageReport) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range Placed(reports) {
		// GeoJSON positions are [lng, lat].
		f := geojson.NewFeature(orb.Point{r.Coordinates.Lng, r.Coordinates.Lat})
		f.ID = r.ReportID
		f.Properties = geojson.Properties{
			"report_id":          r.ReportID,
			"category":           string(MarkerCategory(r.DamageType)),
			"damage_type":        r.DamageType,
			"district":           r.District,
			"ds_division":        r.DSDivision,
			"gn_division":        r.GNDivision,
			"cultivation_nature": r.CultivationNature,
			"land_size":          r.LandSize,
			"land_unit":          r.LandUnit,
			"severity":           r.Severity,
			"needs_list":         r.NeedsList,
			"urgent":             r.Urgent,
			"contact_number":     r.ContactNumber,
			"status":             string(r.Status),
			"is_verified":        r.IsVerified,
		}
		if len(r.Images) > 0 {
			f.Properties["image"] = r.Images[0]
		}
		fc.Append(f)
	}
	return fc
}

// View is the map payload: the filtered listing projected to features
// plus the legend data.
type View struct {
	Need       string                     `json:"need"`
	Count      int                        `json:"count"`
	Placed     int                        `json:"placed"`
	NeedCounts map[string]int             `json:"need_counts"`
	Features   *geojson.FeatureCollection `json:"features"`
}

// Build filters reports by need and projects the result. NeedCounts are
// computed over the unfiltered input so the legend does not change with
// the selection.
func Build(reports []model.DamageReport, need string) View {
	filtered := FilterByNeed(reports, need)
	fc := FeatureCollection(filtered)
	return View{
		Need:       need,
		Count:      len(filtered),
		Placed:     len(fc.Features),
		NeedCounts: NeedCounts(reports),
		Features:   fc,
	}
}
