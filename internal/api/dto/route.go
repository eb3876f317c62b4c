package dto

type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type WaypointsResponse struct {
	RouteName string               `json:"route_name"`
	Waypoints []CoordinateResponse `json:"waypoints"`
}
