package models

// Duration is the planned time spent at a stop.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Stop is one stop of a trip day as returned by the API.
type Stop struct {
	ID           string   `json:"id"`
	TripDayID    string   `json:"tripDayId"`
	DayIndex     int      `json:"dayIndex"`
	Position     int      `json:"position"`
	POIID        string   `json:"poiId"`
	Name         string   `json:"name"`
	Kind         string   `json:"kind,omitempty"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Duration     Duration `json:"duration"`
	DurationText string   `json:"durationText"`
	StartTime    string   `json:"startTime,omitempty"`
	DisplayTime  string   `json:"displayTime,omitempty"`
}

// RouteEstimate is the travel estimate of one leg. A leg without an
// estimate is encoded as null in its place.
type RouteEstimate struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// ItineraryResponse is the full itinerary of a trip. DaySequences[d] lists
// the stops of day d in order and RouteEstimates[d][i] is the leg from stop
// i to stop i+1 of that day.
type ItineraryResponse struct {
	DaySequences   [][]Stop           `json:"daySequences"`
	RouteEstimates [][]*RouteEstimate `json:"routeEstimates"`
}

// DayResponse is a single day of a trip.
type DayResponse struct {
	DayIndex       int              `json:"dayIndex"`
	Stops          []Stop           `json:"stops"`
	RouteEstimates []*RouteEstimate `json:"routeEstimates"`
}
