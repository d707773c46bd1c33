// Package controller exposes the evaluation engine over HTTP.
package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codecoach/internal/evaluation/model"
	"codecoach/pkg/errors"
	"codecoach/pkg/utils/logger"
	"codecoach/pkg/utils/response"
)

// Service is the evaluator surface the controller depends on.
type Service interface {
	Evaluate(ctx context.Context, sub model.Submission) (*model.EvaluationReport, error)
}

// ReportGetter fetches stored reports by id.
type ReportGetter interface {
	Get(ctx context.Context, id string) (*model.EvaluationReport, error)
}

// EvaluationController handles the evaluation endpoints.
type EvaluationController struct {
	svc   Service
	store ReportGetter // nil when history is disabled
}

// NewEvaluationController creates the controller. store may be nil.
func NewEvaluationController(svc Service, store ReportGetter) *EvaluationController {
	return &EvaluationController{svc: svc, store: store}
}

// RegisterRoutes wires the controller into the router.
func (ec *EvaluationController) RegisterRoutes(r *gin.Engine) {
	r.POST("/evaluate", ec.Evaluate)
	r.GET("/healthz", ec.Health)
	api := r.Group("/api/v1")
	{
		api.GET("/evaluations/:id", ec.GetEvaluation)
	}
}

// Evaluate handles POST /evaluate.
//
// Error responses on this endpoint are plain text: clients of the original
// contract expect a bare string body with a 400 or 500 status.
func (ec *EvaluationController) Evaluate(c *gin.Context) {
	var req model.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return
	}
	if req.Code == "" {
		c.String(http.StatusBadRequest, "code is required")
		return
	}

	report, err := ec.svc.Evaluate(c.Request.Context(), req.Submission())
	if err != nil {
		appErr := errors.GetError(err)
		status := appErr.Code.HTTPStatus()
		if status >= 500 {
			logger.Error(c.Request.Context(), "evaluation failed",
				zap.Int("code", int(appErr.Code)), zap.Error(err))
			c.String(status, "internal error: "+appErr.Error())
			return
		}
		c.String(status, appErr.Error())
		return
	}

	c.JSON(http.StatusOK, model.NewEvaluateResponse(report))
}

// GetEvaluation handles GET /api/v1/evaluations/:id.
func (ec *EvaluationController) GetEvaluation(c *gin.Context) {
	if ec.store == nil {
		response.Error(c, errors.New(errors.HistoryDisabled))
		return
	}
	id := c.Param("id")
	report, err := ec.store.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, model.NewEvaluateResponse(report))
}

// Health handles GET /healthz.
func (ec *EvaluationController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
