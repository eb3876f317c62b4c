package dto

type RiderResponse struct {
	RiderID  int64    `json:"rider_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Excluded bool     `json:"excluded"`
}

type ListRidersResponse struct {
	Riders []RiderResponse `json:"riders"`
}
