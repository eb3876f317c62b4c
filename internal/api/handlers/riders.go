package handlers

import (
	"net/http"
	"school-route-service/internal/api/dto"
	"school-route-service/internal/ports"

	"go.uber.org/zap"
)

// RiderHandler exposes the read-only roster.
type RiderHandler struct {
	Repo ports.RiderRepository
}

func (h *RiderHandler) List(w http.ResponseWriter, r *http.Request) {
	riders, err := h.Repo.ListRiders(r.Context())
	if err != nil {
		zap.L().Error("list riders failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRidersResponse{
		Riders: make([]dto.RiderResponse, 0, len(riders)),
	}
	for _, rd := range riders {
		item := dto.RiderResponse{
			RiderID:  rd.RiderID,
			Name:     rd.Name,
			Address:  rd.Address.String(),
			Excluded: rd.Excluded,
		}
		if rd.HasHome() {
			lat, lon := rd.Home.Lat, rd.Home.Lon
			item.Lat, item.Lon = &lat, &lon
		}
		res.Riders = append(res.Riders, item)
	}

	writeJSON(w, r, http.StatusOK, res)
}
