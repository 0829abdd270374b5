package controller

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	Service *service.RecommendationService
}

func NewRecommendationController(svc *service.RecommendationService) *RecommendationController {
	return &RecommendationController{Service: svc}
}

// bindOptionalJSON 允许空请求体
func bindOptionalJSON(ctx *gin.Context, dst interface{}) error {
	if err := ctx.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// @Summary 混合内容推荐
// @Description 按启用的内容类型分配推荐数量（三类 4:3:1，两类 6:4 / 7:3 / 8:2）
// @Tags 内容推荐
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param body body service.MixedRecommendRequest false "推荐设置"
// @Success 200 {object} util.Response{data=model.MixedRecommendations}
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /learners/{userId}/recommendations [post]
func (c *RecommendationController) RecommendMixed(ctx *gin.Context) {
	var req service.MixedRecommendRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.RecommendMixed(ctx.Request.Context(), ctx.Param("userId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 单类内容推荐
// @Tags 内容推荐
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param kind path string true "内容类型" Enums(course, lesson, practice)
// @Param body body service.RecommendRequest false "推荐设置"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /learners/{userId}/recommendations/{kind} [post]
func (c *RecommendationController) RecommendKind(ctx *gin.Context) {
	var req service.RecommendRequest
	if err := bindOptionalJSON(ctx, &req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	userID := ctx.Param("userId")
	reqCtx := ctx.Request.Context()

	var (
		result interface{}
		err    error
	)
	switch kind := model.ContentKind(ctx.Param("kind")); kind {
	case model.ContentCourse:
		result, err = c.Service.RecommendCourses(reqCtx, userID, req)
	case model.ContentLesson:
		result, err = c.Service.RecommendLessons(reqCtx, userID, req)
	case model.ContentPractice:
		result, err = c.Service.RecommendPractices(reqCtx, userID, req)
	default:
		err = fmt.Errorf("%w: %q", util.ErrUnknownContentKind, kind)
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
