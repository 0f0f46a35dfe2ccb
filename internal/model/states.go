package model

// StateCount is the number of US states a map can mark visited.
const StateCount = 50

// usStates is the canonical catalog of state names. Map documents may
// only contain members of this set; the names match the GeoJSON
// feature names used by the boundary data.
var usStates = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California",
	"Colorado", "Connecticut", "Delaware", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa",
	"Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri",
	"Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio",
	"Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
}

var stateSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(usStates))
	for _, s := range usStates {
		set[s] = struct{}{}
	}
	return set
}()

// ValidState reports whether name is one of the 50 canonical states.
func ValidState(name string) bool {
	_, ok := stateSet[name]
	return ok
}

// StateNames returns the canonical state catalog in alphabetical order.
func StateNames() []string {
	return append([]string(nil), usStates...)
}

// VisitedStats summarizes progress across the 50 states.
type VisitedStats struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// StatsFor computes visited-state statistics for a selection.
// The percentage is rounded to the nearest whole number, matching the
// display the map UI has always shown.
func StatsFor(states []string) VisitedStats {
	n := len(states)
	return VisitedStats{
		Count:      n,
		Percentage: (n*100 + StateCount/2) / StateCount,
	}
}
