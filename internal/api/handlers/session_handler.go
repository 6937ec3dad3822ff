package handlers

import (
	"net/http"

	"github.com/andresuchdata/autopo-py/planner-go/internal/drive"
	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type SessionHandler struct {
	sessions    *session.Store
	importer    *drive.Importer
	maxUploadMB int64
}

// NewSessionHandler builds the handler; source may be nil when Drive is not configured.
func NewSessionHandler(sessions *session.Store, source drive.Source, maxUploadMB int64) *SessionHandler {
	h := &SessionHandler{sessions: sessions, maxUploadMB: maxUploadMB}
	if source != nil {
		h.importer = drive.NewImporter(source)
	}
	return h
}

type sessionResponse struct {
	session.Session
	Missing []ingest.Kind `json:"missing"`
}

func respondSession(c *gin.Context, status int, s session.Session) {
	c.JSON(status, sessionResponse{Session: s, Missing: s.Missing()})
}

// CreateSession starts an empty upload session
func (h *SessionHandler) CreateSession(c *gin.Context) {
	respondSession(c, http.StatusCreated, h.sessions.Create())
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		sessionError(c, err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadTable reads the multipart "file" field as the table named by :kind,
// replacing any earlier upload of that kind.
func (h *SessionHandler) UploadTable(c *gin.Context) {
	kind, err := ingest.ParseKind(c.Param("kind"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.maxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadMB<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "file is required")
		return
	}
	if !ingest.Supported(header.Filename) {
		errorResponse(c, http.StatusBadRequest, "only .csv and .xlsx files are supported")
		return
	}
	f, err := header.Open()
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	t, err := ingest.Read(header.Filename, f)
	if err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s, err := h.sessions.Put(c.Param("id"), kind, header.Filename, t)
	if err != nil {
		sessionError(c, err)
		return
	}
	log.Info().
		Str("session", s.ID).
		Str("kind", string(kind)).
		Str("filename", header.Filename).
		Int("rows", t.Len()).
		Msg("Table uploaded")
	respondSession(c, http.StatusOK, s)
}

func (h *SessionHandler) RemoveTable(c *gin.Context) {
	kind, err := ingest.ParseKind(c.Param("kind"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.sessions.Remove(c.Param("id"), kind)
	if err != nil {
		sessionError(c, err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

type driveImportRequest struct {
	FolderID string `json:"folder_id"`
	Path     string `json:"path"`
}

// ImportDrive loads every recognised spreadsheet from a Drive folder into the session.
func (h *SessionHandler) ImportDrive(c *gin.Context) {
	if h.importer == nil {
		errorResponse(c, http.StatusServiceUnavailable, "google drive is not configured")
		return
	}
	var req driveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FolderID == "" && req.Path == "" {
		errorResponse(c, http.StatusBadRequest, "folder_id or path is required")
		return
	}

	id := c.Param("id")
	if _, err := h.sessions.Get(id); err != nil {
		sessionError(c, err)
		return
	}

	res, err := h.importer.ImportFolder(c.Request.Context(), req.FolderID, req.Path)
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	var s session.Session
	for _, kind := range ingest.Kinds {
		t, ok := res.Tables[kind]
		if !ok {
			continue
		}
		if s, err = h.sessions.Put(id, kind, res.Files[kind], t); err != nil {
			sessionError(c, err)
			return
		}
	}
	if s.ID == "" {
		s, _ = h.sessions.Get(id)
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sessionResponse{Session: s, Missing: s.Missing()},
		"files":   res.Files,
		"skipped": res.Skipped,
	})
}
