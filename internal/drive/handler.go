package drive

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes read-only Drive browsing. It is a plain net/http router so
// it can be mounted under any prefix.
type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// Router builds the sub-router; prefix is the path it is mounted under.
func (h *Handler) Router(prefix string) *mux.Router {
	router := mux.NewRouter().PathPrefix(prefix).Subrouter()
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/files/{fileId}/download", h.DownloadFile).Methods(http.MethodGet)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")

	if folderPath := query.Get("path"); folderPath != "" {
		id, err := h.source.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		folderID = id
	}

	files, err := h.source.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if files == nil {
		files = []*File{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": files})
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId is required")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if err := h.source.DownloadFile(r.Context(), fileID, w); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
