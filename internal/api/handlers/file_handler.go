package handlers

import (
	"net/http"

	"github.com/carebridge/telehealth-backend/internal/api/middleware"
	"github.com/carebridge/telehealth-backend/internal/application/services"
	"github.com/carebridge/telehealth-backend/internal/domain/entities"
	"github.com/carebridge/telehealth-backend/internal/domain/repositories"
)

// FileHandler handles file metadata HTTP requests
type FileHandler struct {
	fileService *services.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

// Create handles POST /api/files
func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var input services.CreateFileInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, err)
		return
	}

	record, err := h.fileService.Create(r.Context(), userID, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

// Get handles GET /api/files/{id}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileID := r.PathValue("id")
	if fileID == "" {
		respondWithError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	record, err := h.fileService.Get(r.Context(), userID, middleware.RoleFromContext(r.Context()), fileID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// Update handles PATCH /api/files/{id}
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileID := r.PathValue("id")
	if fileID == "" {
		respondWithError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	var input services.UpdateFileInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithAppError(w, err)
		return
	}

	record, err := h.fileService.Update(r.Context(), userID, fileID, input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /api/files/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	fileID := r.PathValue("id")
	if fileID == "" {
		respondWithError(w, http.StatusBadRequest, "file ID is required")
		return
	}

	if err := h.fileService.Delete(r.Context(), userID, fileID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, offset := paginationParams(r)
	filter := repositories.FileFilter{
		Category: entities.FileCategory(r.URL.Query().Get("category")),
		Limit:    limit,
		Offset:   offset,
	}

	records, err := h.fileService.ListOwn(r.Context(), userID, filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"files": records,
		"count": len(records),
	})
}
