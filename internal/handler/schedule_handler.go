package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campusgrid/timetabling/internal/errors"
	"github.com/campusgrid/timetabling/internal/response"
	"github.com/campusgrid/timetabling/internal/service"
	"github.com/campusgrid/timetabling/pkg/model"
)

type scheduler interface {
	Defaults() model.Config
	Compute(ctx context.Context, modelInput model.ModelInput, cfg model.Config) (*service.ComputeResult, error)
	ComputeSemester(ctx context.Context, semester string, cfg model.Config) (*service.ComputeResult, error)
	Validate(schedule *model.Schedule, modelInput model.ModelInput) model.ValidationResult
}

type computeRequest struct {
	Input  json.RawMessage `json:"input" binding:"required"`
	Config json.RawMessage `json:"config"`
}

type validateRequest struct {
	Input    json.RawMessage `json:"input" binding:"required"`
	Schedule *model.Schedule `json:"schedule" binding:"required"`
}

type semesterRequest struct {
	Config json.RawMessage `json:"config"`
}

type scheduleResponse struct {
	Schedule  *model.Schedule      `json:"schedule"`
	Timetable []model.DayTimetable `json:"timetable"`
}

type validationResponse struct {
	Valid      bool              `json:"valid"`
	Violations []model.Violation `json:"violations"`
}

// ScheduleHandler exposes schedule computation and validation endpoints.
type ScheduleHandler struct {
	service scheduler
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.SchedulerService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Compute places every session derived from the posted snapshot.
func (h *ScheduleHandler) Compute(c *gin.Context) {
	var req computeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid compute payload"))
		return
	}
	modelInput, err := model.InputFromBytes(req.Input, model.FormatJSON)
	if err != nil {
		response.Error(c, err)
		return
	}
	cfg, err := h.config(req.Config)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Compute(c.Request.Context(), modelInput, cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, newScheduleResponse(result.Schedule), meta(result))
}

// ComputeSemester schedules the semester snapshot held in the store and persists the run.
func (h *ScheduleHandler) ComputeSemester(c *gin.Context) {
	var req semesterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid semester payload"))
			return
		}
	}
	cfg, err := h.config(req.Config)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.ComputeSemester(c.Request.Context(), c.Param("semester"), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, newScheduleResponse(result.Schedule), meta(result))
}

// Validate re-checks every hard constraint of the posted schedule against the posted snapshot.
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid validate payload"))
		return
	}
	modelInput, err := model.InputFromBytes(req.Input, model.FormatJSON)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := h.service.Validate(req.Schedule, modelInput)
	violations := result.Violations
	if violations == nil {
		violations = []model.Violation{}
	}
	response.JSON(c, http.StatusOK, validationResponse{Valid: result.Valid(), Violations: violations})
}

// Fields missing from the request keep the server defaults
func (h *ScheduleHandler) config(raw json.RawMessage) (model.Config, error) {
	cfg := h.service.Defaults()
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return cfg, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return model.Config{}, appErrors.Wrap(err, appErrors.ErrInvalidConfig.Code, http.StatusBadRequest, "invalid scheduler configuration")
	}
	return cfg, nil
}

func newScheduleResponse(schedule *model.Schedule) scheduleResponse {
	return scheduleResponse{Schedule: schedule, Timetable: schedule.Timetable()}
}

func meta(result *service.ComputeResult) map[string]interface{} {
	meta := map[string]interface{}{
		"cached":      result.Cached,
		"partial":     result.Schedule.Partial,
		"unplaceable": len(result.Schedule.Unplaceable),
	}
	if result.RunID != "" {
		meta["runId"] = result.RunID
	}
	return meta
}
