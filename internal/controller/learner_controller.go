package controller

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"fmt"

	"github.com/gin-gonic/gin"
)

type LearnerController struct {
	Service *service.AdaptiveService
}

func NewLearnerController(svc *service.AdaptiveService) *LearnerController {
	return &LearnerController{Service: svc}
}

// @Summary 获取学习画像
// @Description 不存在时按默认值创建
// @Tags 学习画像
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=model.LearnerProfile}
// @Router /learners/{userId}/profile [get]
func (c *LearnerController) GetProfile(ctx *gin.Context) {
	util.Success(ctx, c.Service.GetProfile(ctx.Request.Context(), ctx.Param("userId")))
}

// @Summary 更新学习偏好
// @Tags 学习画像
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param body body service.PreferencesRequest true "偏好设置，省略的字段保持不变"
// @Success 200 {object} util.Response{data=model.LearnerProfile}
// @Failure 400 {object} util.Response
// @Router /learners/{userId}/preferences [put]
func (c *LearnerController) UpdatePreferences(ctx *gin.Context) {
	var req service.PreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.Service.UpdatePreferences(ctx.Request.Context(), ctx.Param("userId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// @Summary 提交一次练习表现
// @Description 更新对应技能的熟练度并记录到最近表现中
// @Tags 学习画像
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param body body service.ObservationRequest true "表现数据"
// @Success 200 {object} util.Response{data=service.ObservationResult}
// @Failure 400 {object} util.Response
// @Router /learners/{userId}/observations [post]
func (c *LearnerController) RecordObservation(ctx *gin.Context) {
	var req service.ObservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, fmt.Sprintf("%v: %v", util.ErrInvalidObservation, err))
		return
	}
	metrics, err := req.Metrics()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	result, err := c.Service.RecordObservation(ctx.Request.Context(), ctx.Param("userId"), metrics)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 技能表现评估
// @Tags 学习评估
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param skill path string true "技能" Enums(chineseToEnglish, englishToChinese, grammar, listening, vocabulary, speaking, reading, writing)
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 400 {object} util.Response
// @Router /learners/{userId}/skills/{skill}/evaluation [get]
func (c *LearnerController) Evaluate(ctx *gin.Context) {
	eval, err := c.Service.Evaluate(ctx.Request.Context(), ctx.Param("userId"), model.SkillTag(ctx.Param("skill")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, eval)
}

// @Summary 难度调整建议
// @Tags 学习评估
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Param skill path string true "技能"
// @Success 200 {object} util.Response{data=model.DifficultyRecommendation}
// @Failure 400 {object} util.Response
// @Router /learners/{userId}/skills/{skill}/difficulty [get]
func (c *LearnerController) RecommendDifficulty(ctx *gin.Context) {
	rec, err := c.Service.RecommendDifficulty(ctx.Request.Context(), ctx.Param("userId"), model.SkillTag(ctx.Param("skill")))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// @Summary 学习路径建议
// @Tags 学习评估
// @Produce json
// @Security ApiKeyAuth
// @Param userId path string true "用户ID"
// @Success 200 {object} util.Response{data=model.LearningPathSuggestion}
// @Router /learners/{userId}/path [get]
func (c *LearnerController) SuggestPath(ctx *gin.Context) {
	util.Success(ctx, c.Service.SuggestPath(ctx.Request.Context(), ctx.Param("userId")))
}
