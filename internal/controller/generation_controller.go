package controller

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"examforge_backend/internal/service"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GenerationController struct {
	GenerationService *service.GenerationService
	QuestionService   *service.QuestionService
}

func NewGenerationController(generationService *service.GenerationService, questionService *service.QuestionService) *GenerationController {
	return &GenerationController{
		GenerationService: generationService,
		QuestionService:   questionService,
	}
}

// Generate godoc
// @Summary Generate questions for a syllabus
// @Description Draft Bloom-tagged questions for every course outcome of the syllabus, then audit each one
// @Tags generation
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.GenerateRequest true "Generation request"
// @Success 200 {object} object{success=bool,questionsGenerated=int,message=string}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 429 {object} object{success=bool,error=string}
// @Router /api/generate-questions [post]
func (c *GenerationController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	count, err := c.GenerationService.Generate(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		c.respondPipelineError(ctx, err)
		return
	}

	c.QuestionService.InvalidateCaches(ctx.Request.Context(), claims.UserID, req.SyllabusID)

	message := fmt.Sprintf("Generated and audited %d questions", count)
	if count == 0 {
		message = "No questions could be generated, please try again"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success":            true,
		"questionsGenerated": count,
		"message":            message,
	})
}

type RegenerateRequest struct {
	QuestionID string `json:"questionId"`
}

// Regenerate godoc
// @Summary Regenerate one question
// @Description Replace a question with a new one at the same Bloom level, then re-audit it
// @Tags generation
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body RegenerateRequest true "Regeneration request"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} object{success=bool,error=string}
// @Failure 429 {object} object{success=bool,error=string}
// @Router /api/regenerate-question [post]
func (c *GenerationController) Regenerate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RegenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := c.GenerationService.Regenerate(ctx.Request.Context(), claims.UserID, req.QuestionID); err != nil {
		c.respondPipelineError(ctx, err)
		return
	}

	c.QuestionService.InvalidateCaches(ctx.Request.Context(), claims.UserID, "")

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Question regenerated and re-audited",
	})
}

// respondPipelineError maps pipeline failures onto HTTP responses. Upstream
// configuration details never leak to the caller.
func (c *GenerationController) respondPipelineError(ctx *gin.Context, err error) {
	var verr *service.ValidationError
	var rerr *service.RateLimitError
	var gerr *service.GatewayError

	switch {
	case errors.As(err, &verr):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Msg})
	case errors.As(err, &rerr):
		ctx.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(rerr.RetryAfter.Seconds()))))
		ctx.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": rerr.Error()})
	case errors.Is(err, util.ErrSyllabusNotFound), errors.Is(err, util.ErrQuestionNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Resource not found"})
	case errors.Is(err, util.ErrPermissionDenied):
		ctx.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Forbidden"})
	case errors.Is(err, util.ErrNoCourseOutcomes):
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Syllabus has no course outcomes"})
	case errors.Is(err, util.ErrAINotConfigured):
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "AI service not configured"})
	case errors.Is(err, util.ErrUpstreamQuotaExhausted):
		ctx.JSON(http.StatusPaymentRequired, gin.H{"success": false, "error": "AI service quota exhausted"})
	case errors.As(err, &gerr) && gerr.Kind == service.GatewayRateLimited:
		ctx.Header("Retry-After", "30")
		ctx.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "AI service is rate limited, please retry shortly"})
	default:
		logger.Log.Error("generation pipeline error", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process the request"})
	}
}
