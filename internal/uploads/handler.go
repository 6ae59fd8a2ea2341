package uploads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
)

// Handler serves stored images back to authenticated sessions.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to an authenticated router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/uploads/:name", h.serve)
	rg.GET("/uploads", h.list)
}

func (h *Handler) serve(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Nombre de archivo inválido.", nil)
		return
	}

	f, rc, err := h.Svc.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Archivo no encontrado.", nil)
			return
		}
		telemetry.Error("uploads.open.failed", map[string]any{
			"request_id":  middleware.RequestIDFromContext(c),
			"stored_name": name,
			"err":         err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "No se pudo leer el archivo.", nil)
		return
	}
	defer rc.Close()

	c.Set(middleware.StoredNameKey, f.StoredName)
	c.Header("Cache-Control", "private, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, f.SizeBytes, f.MimeType, rc, nil)
}

type uploadResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
	CreatedAt    string `json:"createdAt"`
}

// list returns the current session's recent uploads.
func (h *Handler) list(c *gin.Context) {
	files, err := h.Svc.Repo.ListBySession(c.Request.Context(), middleware.SessionHashFromContext(c), 20)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "No se pudo listar los archivos.", nil)
		return
	}
	out := make([]uploadResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toResponse(f))
	}
	respond.OK(c, gin.H{"items": out})
}

func toResponse(f UploadedFile) uploadResponse {
	return uploadResponse{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		StoredName:   f.StoredName,
		URL:          "/uploads/" + f.StoredName,
		MimeType:     f.MimeType,
		SizeBytes:    f.SizeBytes,
		CreatedAt:    f.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
