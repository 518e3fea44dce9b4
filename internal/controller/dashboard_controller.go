package controller

import (
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	QuestionService *service.QuestionService
}

func NewDashboardController(questionService *service.QuestionService) *DashboardController {
	return &DashboardController{QuestionService: questionService}
}

// Stats godoc
// @Summary Dashboard statistics
// @Description Question counts by status, average quality score and syllabus count for the caller
// @Tags dashboard
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Router /api/dashboard/stats [get]
func (c *DashboardController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.QuestionService.Stats(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Coverage godoc
// @Summary Outcome-by-level coverage matrix
// @Description Question counts per course outcome and Bloom level for one syllabus
// @Tags dashboard
// @Produce  json
// @Security BearerAuth
// @Param   syllabusId query string true "Syllabus ID"
// @Success 200 {object} util.Response{data=[]repository.CoverageCell}
// @Failure 404 {object} util.Response
// @Router /api/dashboard/coverage [get]
func (c *DashboardController) Coverage(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	syllabusID := ctx.Query("syllabusId")
	if msg := util.ValidateUUID(syllabusID, "syllabusId"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	cells, err := c.QuestionService.Coverage(ctx.Request.Context(), claims.UserID, syllabusID)
	if err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, cells)
}
