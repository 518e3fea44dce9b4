package controller

import (
	"errors"

	"examforge_backend/internal/model"
	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// List godoc
// @Summary List questions
// @Description List the caller's questions, optionally filtered by syllabus, status and Bloom level
// @Tags questions
// @Produce  json
// @Security BearerAuth
// @Param   syllabusId query string false "Syllabus ID"
// @Param   status query string false "Question status"
// @Param   bloomLevel query string false "Bloom taxonomy level"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	filter := service.QuestionFilter{
		SyllabusID: ctx.Query("syllabusId"),
		Status:     ctx.Query("status"),
		BloomLevel: ctx.Query("bloomLevel"),
	}
	if filter.SyllabusID != "" {
		if msg := util.ValidateUUID(filter.SyllabusID, "syllabusId"); msg != "" {
			util.BadRequest(ctx, msg)
			return
		}
	}

	questions, err := c.QuestionService.List(claims.UserID, filter)
	if err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

type StatusChangeRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ChangeStatus godoc
// @Summary Approve or reject an audited question
// @Tags questions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Question ID"
// @Param   body body StatusChangeRequest true "Target status"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id}/status [patch]
func (c *QuestionController) ChangeStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	var req StatusChangeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.QuestionService.ChangeStatus(ctx.Request.Context(), claims.UserID, ctx.Param("id"), model.QuestionStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidStatusChange):
			util.BadRequest(ctx, "status must be approved or rejected")
		case errors.Is(err, util.ErrQuestionNotYetAudited):
			util.BadRequest(ctx, "question has not been audited yet")
		default:
			respondOwnershipError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// Delete godoc
// @Summary Delete a question
// @Tags questions
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Question ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	if err := c.QuestionService.Delete(ctx.Request.Context(), claims.UserID, ctx.Param("id")); err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
