package controller

import (
	"errors"

	"examforge_backend/internal/service"
	"examforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyllabusController struct {
	SyllabusService *service.SyllabusService
}

func NewSyllabusController(syllabusService *service.SyllabusService) *SyllabusController {
	return &SyllabusController{SyllabusService: syllabusService}
}

// Create godoc
// @Summary Create a syllabus
// @Description Store a syllabus with its content and course outcomes
// @Tags syllabi
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.SyllabusRequest true "Syllabus payload"
// @Success 201 {object} util.Response{data=model.Syllabus}
// @Failure 400 {object} util.Response
// @Router /api/syllabi [post]
func (c *SyllabusController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SyllabusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	syllabus, err := c.SyllabusService.Create(claims.UserID, req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			util.BadRequest(ctx, verr.Msg)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, syllabus)
}

// List godoc
// @Summary List the caller's syllabi
// @Tags syllabi
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Syllabus}
// @Router /api/syllabi [get]
func (c *SyllabusController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	syllabi, err := c.SyllabusService.List(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, syllabi)
}

// Get godoc
// @Summary Fetch one syllabus with its outcomes
// @Tags syllabi
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Syllabus ID"
// @Success 200 {object} util.Response{data=model.Syllabus}
// @Failure 404 {object} util.Response
// @Router /api/syllabi/{id} [get]
func (c *SyllabusController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	syllabus, err := c.SyllabusService.Get(claims.UserID, ctx.Param("id"))
	if err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, syllabus)
}

// Outcomes godoc
// @Summary List course outcomes of a syllabus
// @Tags syllabi
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Syllabus ID"
// @Success 200 {object} util.Response{data=[]model.CourseOutcome}
// @Router /api/syllabi/{id}/outcomes [get]
func (c *SyllabusController) Outcomes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	outcomes, err := c.SyllabusService.ListOutcomes(claims.UserID, ctx.Param("id"))
	if err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, outcomes)
}

// Delete godoc
// @Summary Delete a syllabus and everything under it
// @Tags syllabi
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Syllabus ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/syllabi/{id} [delete]
func (c *SyllabusController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	if err := c.SyllabusService.Delete(claims.UserID, ctx.Param("id")); err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Upload godoc
// @Summary Attach the source document to a syllabus
// @Description Store the original uploaded file (PDF, DOCX) alongside the syllabus
// @Tags syllabi
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "Syllabus ID"
// @Param   file formData file true "Syllabus source document"
// @Success 200 {object} util.Response{data=model.Syllabus}
// @Router /api/syllabi/{id}/upload [post]
func (c *SyllabusController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if msg := util.ValidateUUID(ctx.Param("id"), "id"); msg != "" {
		util.BadRequest(ctx, msg)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	syllabus, err := c.SyllabusService.AttachFile(ctx.Request.Context(), claims.UserID, ctx.Param("id"),
		fileHeader.Filename, f, fileHeader.Size, contentType)
	if err != nil {
		respondOwnershipError(ctx, err)
		return
	}
	util.Success(ctx, syllabus)
}

// respondOwnershipError maps the shared lookup errors onto their HTTP codes.
func respondOwnershipError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSyllabusNotFound), errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
