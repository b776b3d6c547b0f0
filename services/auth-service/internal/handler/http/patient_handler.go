package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

type updatePatientRequest struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
}

type historyRequest struct {
	Diagnosis string  `json:"diagnosis"`
	Treatment string  `json:"treatment"`
	Notes     *string `json:"notes,omitempty"`
}

// authorizePatient пациент видит только свою карточку
func authorizePatient(r *http.Request, patientID string) error {
	identity, ok := service.IdentityFromContext(r.Context())
	if !ok {
		return domain.ErrUnauthenticated
	}
	if identity.Role == domain.RolePatient && identity.PrincipalID != patientID {
		return domain.ErrForbidden
	}
	return nil
}

// handleGetPatient GET /patients/{id}
func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := authorizePatient(r, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	record, err := h.patients.GetPatient(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleUpdatePatient PUT /patients/{id}
func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := authorizePatient(r, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	var req updatePatientRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	record, err := h.patients.UpdatePatient(r.Context(), &domain.PatientRecord{
		ID:          id,
		FullName:    req.FullName,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleListHistory GET /patients/{id}/history
func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := authorizePatient(r, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	entries, err := h.history.ListHistory(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// handleAddHistory POST /patients/{id}/history
func (h *Handler) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	entry, err := h.history.AddEntry(r.Context(), &domain.MedicalHistoryEntry{
		PatientID: mux.Vars(r)["id"],
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
