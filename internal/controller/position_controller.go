package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PositionController struct {
	Service *service.ResumeService
}

func NewPositionController(svc *service.ResumeService) *PositionController {
	return &PositionController{Service: svc}
}

// 开启认证时只能读写自己的学习位置
func permitted(ctx *gin.Context, userID string) bool {
	claims := util.GetUserFromContext(ctx)
	return claims == nil || claims.Subject == userID
}

// @Summary 保存学习位置
// @Description 覆盖同一用户、课程、课时的旧位置
// @Tags 学习位置
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SavePositionRequest true "位置信息"
// @Success 200 {object} util.Response{data=model.LearningPosition}
// @Failure 400 {object} util.Response
// @Router /positions [post]
func (c *PositionController) SavePosition(ctx *gin.Context) {
	var req service.SavePositionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !permitted(ctx, req.UserID) {
		util.Forbidden(ctx)
		return
	}

	pos, err := c.Service.SavePosition(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pos)
}

// @Summary 获取最后学习位置
// @Description 未指定课时时返回该课程最近的位置
// @Tags 学习位置
// @Produce json
// @Security ApiKeyAuth
// @Param userId query string true "用户ID"
// @Param courseId query string true "课程ID"
// @Param lessonId query string false "课时ID"
// @Success 200 {object} util.Response{data=model.LearningPosition}
// @Failure 404 {object} util.Response
// @Router /positions/last [get]
func (c *PositionController) GetLastPosition(ctx *gin.Context) {
	userID := ctx.Query("userId")
	if !permitted(ctx, userID) {
		util.Forbidden(ctx)
		return
	}

	pos, err := c.Service.GetLastPosition(ctx.Request.Context(), userID, ctx.Query("courseId"), ctx.Query("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pos)
}

// @Summary 继续学习建议
// @Tags 学习位置
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param limit query int false "数量" default(5)
// @Success 200 {object} util.Response{data=[]model.ContinueRecommendation}
// @Router /learners/{userId}/continue [get]
func (c *PositionController) GetRecommendations(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(service.DefaultContinueLimit)))

	recs, err := c.Service.GetRecommendations(ctx.Request.Context(), ctx.Param("userId"), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, recs)
}

// @Summary 进行中的课程
// @Tags 学习位置
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=[]model.InProgressCourse}
// @Router /learners/{userId}/in-progress [get]
func (c *PositionController) GetInProgressCourses(ctx *gin.Context) {
	courses, err := c.Service.GetInProgressCourses(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}
