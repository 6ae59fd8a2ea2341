package intake

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/shared/telemetry"
	"intake-backend/internal/uploads"
)

const defaultMaxUploadBytes int64 = 10 << 20

// Handler serves the intake form pages and the extraction endpoint.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// FormPage renders the upload and review form.
func (h *Handler) FormPage(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", gin.H{"Username": middleware.UsernameFromContext(c)})
}

// ConfirmationPage renders the submission confirmation.
func (h *Handler) ConfirmationPage(c *gin.Context) {
	c.HTML(http.StatusOK, "confirmation.html", nil)
}

// Upload handles POST /upload: it stores the image, runs extraction and
// returns the extraction payload as the response body.
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fh, err := c.FormFile(uploads.FieldName)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "La imagen excede el tamaño permitido.", gin.H{"maxBytes": h.maxUploadBytes})
			return
		}
		telemetry.Warn("intake.upload.missing_file", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"err":        err,
		})
		h.fail(c, ErrMissingUpload)
		return
	}

	if c.Request.MultipartForm != nil && len(c.Request.MultipartForm.Value) > 0 {
		telemetry.Info("intake.upload.extra_fields", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"fields":     strings.Join(fieldNames(c.Request.MultipartForm.Value), ","),
		})
	}

	file, err := fh.Open()
	if err != nil {
		h.fail(c, errors.Join(ErrStorage, err))
		return
	}
	defer file.Close()

	out, err := h.svc.Process(c.Request.Context(), middleware.SessionHashFromContext(c), fh.Filename, file)
	if out.Upload.StoredName != "" {
		c.Set(middleware.StoredNameKey, out.Upload.StoredName)
		c.Set(middleware.UploadIDKey, out.Upload.ID)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.OutcomeKey, "extracted")
	respond.RawJSON(c, http.StatusOK, out.Raw)
}

// SubmitForm accepts the reviewed form and redirects to the confirmation page.
func (h *Handler) SubmitForm(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		respond.Page(c, http.StatusBadRequest, "error.html", gin.H{
			"Message": "No se pudo leer el formulario.",
			"Back":    "/form",
		})
		return
	}

	sub := Submission{
		SessionHash: middleware.SessionHashFromContext(c),
		RequestID:   middleware.RequestIDFromContext(c),
		Fields:      c.Request.PostForm,
	}
	id, err := h.svc.Submit(c.Request.Context(), sub)
	if err != nil {
		telemetry.Warn("intake.submit.publish_failed", map[string]any{
			"request_id":    sub.RequestID,
			"submission_id": id,
			"err":           err,
		})
	}
	c.Set(middleware.OutcomeKey, "submitted")
	c.Redirect(http.StatusFound, "/confirmation")
}

// fail maps pipeline errors to responses. Upstream detail stays in the logs.
func (h *Handler) fail(c *gin.Context, err error) {
	c.Set(middleware.OutcomeKey, "failed")
	switch {
	case errors.Is(err, ErrMissingUpload):
		respond.Error(c, http.StatusBadRequest, "missing_upload", "No se recibió ninguna imagen.", nil)
	case errors.Is(err, ErrBusy):
		c.Header("Retry-After", strconv.Itoa(h.svc.Limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusServiceUnavailable, "busy", "El servicio está ocupado. Intenta de nuevo en unos momentos.", nil)
	case errors.Is(err, ErrEncoding):
		h.internal(c, err, "encoding_error", "No se pudo leer la imagen.")
	case errors.Is(err, ErrService):
		h.internal(c, err, "extraction_error", "Error al procesar la imagen.")
	case errors.Is(err, ErrMalformedResult):
		var verr *ViolationError
		fields := map[string]any{}
		if errors.As(err, &verr) {
			fields["violations"] = len(verr.Violations)
		}
		h.internal(c, err, "malformed_result", "Error al procesar la imagen.", fields)
	case errors.Is(err, ErrStorage):
		h.internal(c, err, "storage_error", "No se pudo guardar la imagen.")
	default:
		h.internal(c, err, "internal_error", "Error al procesar la imagen.")
	}
}

func (h *Handler) internal(c *gin.Context, err error, code, message string, extra ...map[string]any) {
	fields := map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"session":    middleware.SessionHashFromContext(c),
		"code":       code,
		"err":        err,
	}
	for _, m := range extra {
		for k, v := range m {
			fields[k] = v
		}
	}
	telemetry.Error("intake.upload.failed", fields)
	respond.Error(c, http.StatusInternalServerError, code, message, nil)
}

func fieldNames(values map[string][]string) []string {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
