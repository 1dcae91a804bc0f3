package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/infra/postgres/repository"
	"github.com/aliskhannn/testroom/internal/service"
)

const defaultMaxUploadBytes = 5 << 20

var errBadID = errors.New("invalid test id")

func (h *Handler) listTests(c *gin.Context) {
	tests, err := h.tests.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]testResponse, 0, len(tests))
	for _, t := range tests {
		resp = append(resp, newTestResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tests": resp})
}

// createTest accepts a multipart form with a "file" CSV question bank and the
// fields title, time_limit (minutes) and optionally questions_count.
func (h *Handler) createTest(c *gin.Context) {
	limit := h.maxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.fail(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "file is required"})
		return
	}

	timeLimit, err := strconv.Atoi(c.PostForm("time_limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "time_limit must be a number of minutes"})
		return
	}

	var count *int
	if raw := c.PostForm("questions_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "questions_count must be a number"})
			return
		}
		count = &n
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	test, err := h.tests.CreateFromCSV(c.Request.Context(), service.CreateTestInput{
		Title:          c.PostForm("title"),
		TimeLimit:      timeLimit,
		QuestionsCount: count,
		CreatedBy:      c.GetInt64(ctxAdminID),
		Questions:      file,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTestResponse(*test))
}

func (h *Handler) getTest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	test, err := h.tests.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTestResponse(*test))
}

func (h *Handler) updateTest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	test, err := h.tests.Update(c.Request.Context(), id, req.toUpdate())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTestResponse(*test))
}

func (h *Handler) deleteTest(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.tests.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listAttempts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	attempts, err := h.tests.ListAttempts(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, newAttemptResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"attempts": resp})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errBadID.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps service errors to HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid question bank", Problems: ve.Problems})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "upload is too large"})
	case errors.Is(err, repository.ErrTestNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "test not found"})
	case errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrInvalidTimeLimit),
		errors.Is(err, service.ErrInvalidQuestionsCount):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		h.logger.Error("admin api error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
