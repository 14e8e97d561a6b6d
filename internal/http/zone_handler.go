package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/lab-scheduler/internal/application"
)

type zoneService interface {
	CreateZone(ctx context.Context, principal application.Principal, input application.ZoneInput) (application.Zone, error)
	UpdateZone(ctx context.Context, principal application.Principal, id string, input application.ZoneInput) (application.Zone, error)
	GetZone(ctx context.Context, id string) (application.Zone, error)
	ListZones(ctx context.Context, principal application.Principal) ([]application.Zone, error)
	DeleteZone(ctx context.Context, principal application.Principal, id string) error
}

// ZoneHandler serves the zone catalog endpoints.
type ZoneHandler struct {
	service   zoneService
	responder responder
}

// NewZoneHandler builds the zone handler.
func NewZoneHandler(service zoneService, logger *slog.Logger) *ZoneHandler {
	return &ZoneHandler{service: service, responder: newResponder(logger)}
}

// List handles GET /zones.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	zones, err := h.service.ListZones(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := struct {
		Zones []zoneDTO `json:"zones"`
	}{Zones: toZoneDTOs(zones)}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Create handles POST /zones.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	if err := validateStruct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	zone, err := h.service.CreateZone(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toZoneDTO(zone))
}

// Get handles GET /zones/{id}.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	zoneID, ok := ZoneIDFromContext(r.Context())
	if !ok || zoneID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidZoneID)
		return
	}

	zone, err := h.service.GetZone(r.Context(), zoneID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toZoneDTO(zone))
}

// Update handles PUT /zones/{id}.
func (h *ZoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	zoneID, ok := ZoneIDFromContext(r.Context())
	if !ok || zoneID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidZoneID)
		return
	}

	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}
	if err := validateStruct(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	zone, err := h.service.UpdateZone(r.Context(), principal, zoneID, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toZoneDTO(zone))
}

// Delete handles DELETE /zones/{id}.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	zoneID, ok := ZoneIDFromContext(r.Context())
	if !ok || zoneID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidZoneID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteZone(r.Context(), principal, zoneID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type zoneRequest struct {
	LabID    string `json:"lab_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	DayStart string `json:"day_start" validate:"required,datetime=15:04"`
	DayEnd   string `json:"day_end" validate:"required,datetime=15:04"`
}

func (r zoneRequest) toInput() application.ZoneInput {
	return application.ZoneInput{
		LabID:    r.LabID,
		Name:     r.Name,
		DayStart: r.DayStart,
		DayEnd:   r.DayEnd,
	}
}

type zoneDTO struct {
	ID        string `json:"id"`
	LabID     string `json:"lab_id"`
	Name      string `json:"name"`
	DayStart  string `json:"day_start"`
	DayEnd    string `json:"day_end"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toZoneDTO(zone application.Zone) zoneDTO {
	return zoneDTO{
		ID:        zone.ID,
		LabID:     zone.LabID,
		Name:      zone.Name,
		DayStart:  zone.DayStart,
		DayEnd:    zone.DayEnd,
		CreatedAt: zone.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: zone.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toZoneDTOs(zones []application.Zone) []zoneDTO {
	out := make([]zoneDTO, 0, len(zones))
	for _, zone := range zones {
		out = append(out, toZoneDTO(zone))
	}
	return out
}
