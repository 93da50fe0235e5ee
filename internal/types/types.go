// README: Common value types shared across modules.
package types

type ID string

// Station is the prep station an order item is routed to.
type Station string

const (
	StationKitchen Station = "kitchen"
	StationBar     Station = "bar"
)

// Stations lists the stations compared in reporting, in display order.
var Stations = []Station{StationKitchen, StationBar}

func (s Station) Valid() bool {
	return s == StationKitchen || s == StationBar
}

// ParseStation returns nil for an empty string so callers can pass it straight
// through as "no station filter".
func ParseStation(v string) (*Station, bool) {
	if v == "" {
		return nil, true
	}
	s := Station(v)
	if !s.Valid() {
		return nil, false
	}
	return &s, true
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
