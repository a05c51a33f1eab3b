package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/practice-planner/backend/internal/api/middleware"
	"github.com/practice-planner/backend/internal/storage"
	"github.com/practice-planner/backend/internal/storage/models"
	"github.com/practice-planner/backend/internal/websocket"
)

// ClientRequest is the create/update body for clients.
type ClientRequest struct {
	DisplayName string  `json:"display_name"`
	Tags        *string `json:"tags,omitempty"`
}

// ListClients returns all clients of the authenticated therapist.
func ListClients(repo *storage.ClientRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := repo.ListByTherapist(r.Context(), middleware.UserID(r))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query clients")
			return
		}

		if clients == nil {
			clients = []models.Client{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(clients)
	}
}

// CreateClient adds a new client for the therapist.
func CreateClient(repo *storage.ClientRepository, broadcaster *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.DisplayName == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Display name is required")
			return
		}

		client := &models.Client{
			TherapistID: middleware.UserID(r),
			DisplayName: req.DisplayName,
			Tags:        req.Tags,
		}
		if err := repo.Create(r.Context(), client); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create client")
			return
		}

		if broadcaster != nil {
			broadcaster.ClientChanged(client.TherapistID, client.ID, "created")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client)
	}
}

// UpdateClient edits a client's display name and tags. The denormalized
// client_name on existing events is deliberately left as captured at save
// time.
func UpdateClient(repo *storage.ClientRepository, broadcaster *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := ownedClient(w, r, repo)
		if client == nil {
			return
		}

		var req ClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.DisplayName == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Display name is required")
			return
		}

		client.DisplayName = req.DisplayName
		client.Tags = req.Tags
		if err := repo.Update(r.Context(), client); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update client")
			return
		}

		if broadcaster != nil {
			broadcaster.ClientChanged(client.TherapistID, client.ID, "updated")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(client)
	}
}

// DeleteClient removes a client. Events keep their captured client_name.
func DeleteClient(repo *storage.ClientRepository, broadcaster *websocket.EventBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := ownedClient(w, r, repo)
		if client == nil {
			return
		}

		if err := repo.Delete(r.Context(), client.ID); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete client")
			return
		}

		if broadcaster != nil {
			broadcaster.ClientChanged(client.TherapistID, client.ID, "deleted")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ownedClient(w http.ResponseWriter, r *http.Request, repo *storage.ClientRepository) *models.Client {
	client, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrClientNotFound) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Client not found")
		} else {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query client")
		}
		return nil
	}

	if client.TherapistID != middleware.UserID(r) {
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Client not found")
		return nil
	}

	return client
}
