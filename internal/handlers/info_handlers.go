package handlers

import (
	"net/http"
	"taskAPI/internal/handlers/dto"
)

type InfoHandler struct {
	version     string
	description string
}

func NewInfoHandler(version, description string) *InfoHandler {
	return &InfoHandler{version: version, description: description}
}

func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	responseWithData(w, http.StatusOK, dto.InfoResponse{
		Status:      "online",
		Version:     h.version,
		Description: h.description,
	})
}
