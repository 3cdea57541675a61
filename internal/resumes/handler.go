package resumes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the résumé service.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: validator.New()}
}

// RegisterRoutes attaches résumé routes to the router group. processMW runs
// before the routes that trigger a parse.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, processMW ...gin.HandlerFunc) {
	rg.POST("/resumes", h.upload)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)

	withMW := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, processMW...), final)
	}
	rg.POST("/resumes/parse", withMW(h.parseByBody)...)
	rg.POST("/resumes/:id/process", withMW(h.process)...)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", []respond.FieldIssue{{Field: "file", Issue: "required"}})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	res, err := h.Svc.Upload(h.ctx(c), UploadInput{
		OwnerID:     userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, toResponse(res))
}

func (h *Handler) list(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid paging parameters", nil)
		return
	}
	if err := h.validate.Struct(q); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid paging parameters", respond.ValidationDetails(err))
		return
	}

	items, err := h.Svc.List(h.ctx(c), middleware.UserIDFromContext(c), q.Limit, q.Offset)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]ResumeResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toResponse(r))
	}
	respond.Success(c, http.StatusOK, gin.H{
		"items":  out,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

func (h *Handler) get(c *gin.Context) {
	res, err := h.Svc.Get(h.ctx(c), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, toResponse(res))
}

func (h *Handler) process(c *gin.Context) {
	h.run(c, c.Param("id"))
}

func (h *Handler) parseByBody(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "resumeId is required", []respond.FieldIssue{{Field: "resumeId", Issue: "required"}})
		return
	}
	req.ResumeID = strings.TrimSpace(req.ResumeID)
	if err := h.validate.Struct(req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "resumeId is required", respond.ValidationDetails(err))
		return
	}
	h.run(c, req.ResumeID)
}

func (h *Handler) run(c *gin.Context, id string) {
	userID := middleware.UserIDFromContext(c)
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		res, err := h.Svc.Enqueue(h.ctx(c), userID, id)
		if err != nil {
			writeError(c, err)
			return
		}
		respond.Success(c, http.StatusAccepted, gin.H{
			"resumeId":    res.ID,
			"parseStatus": res.Status,
		})
		return
	}

	parsed, err := h.Svc.Process(h.ctx(c), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, parsed)
}

func (h *Handler) ctx(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func writeError(c *gin.Context, err error) {
	status, code, msg := classifyHTTP(err)
	respond.Error(c, status, code, msg, nil)
}

// classifyHTTP maps pipeline errors to a status, code and client message.
func classifyHTTP(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, ErrorCodeValidation, err.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrorCodeNotFound, "resume not found"
	case errors.Is(err, ErrExtractionFailed):
		return http.StatusUnprocessableEntity, ErrorCodeExtraction, "could not extract text from the document"
	case errors.Is(err, ErrFetchFailed):
		return http.StatusBadGateway, ErrorCodeFetch, "failed to download resume file"
	case errors.Is(err, ErrSchemaExtractionFailed):
		return http.StatusBadGateway, ErrorCodeSchema, "failed to extract structured data"
	case errors.Is(err, ErrJobQueueNotConfigured):
		return http.StatusServiceUnavailable, ErrorCodeInternal, "async processing is not available"
	case errors.Is(err, ErrPersistenceFailed):
		return http.StatusInternalServerError, ErrorCodeStorage, "failed to save resume state"
	default:
		return http.StatusInternalServerError, ErrorCodeInternal, "failed to process resume"
	}
}
