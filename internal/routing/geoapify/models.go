package geoapify

// routingResponse is the GeoJSON FeatureCollection returned by /v1/routing.
type routingResponse struct {
	Type       string         `json:"type"`
	Features   []routeFeature `json:"features"`
	Properties *requestEcho   `json:"properties,omitempty"`
}

// routeFeature is one route. Only the summary properties are read.
type routeFeature struct {
	Type       string          `json:"type"`
	Properties routeProperties `json:"properties"`
}

// routeProperties carries the route summary. Pointers distinguish an absent
// field from a zero-length route.
type routeProperties struct {
	Mode     string   `json:"mode,omitempty"`
	Units    string   `json:"units,omitempty"`
	Distance *float64 `json:"distance"` // meters
	Time     *float64 `json:"time"`     // seconds
}

// requestEcho is the request summary Geoapify echoes back.
type requestEcho struct {
	Mode      string `json:"mode,omitempty"`
	Waypoints []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"waypoints,omitempty"`
}

// errorResponse is the body Geoapify sends with non-2xx statuses.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
