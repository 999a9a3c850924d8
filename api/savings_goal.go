package api

import (
	"strconv"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavingsGoalHandler 储蓄目标处理器
type SavingsGoalHandler struct{}

// NewSavingsGoalHandler 创建储蓄目标处理器
func NewSavingsGoalHandler() *SavingsGoalHandler {
	return &SavingsGoalHandler{}
}

// SavingsGoalCreateRequest 创建储蓄目标请求
type SavingsGoalCreateRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=200" example:"应急基金"`
	TargetAmount  decimal.Decimal `json:"target_amount" example:"10000.00"`
	CurrentAmount decimal.Decimal `json:"current_amount" example:"0.00"`
	Deadline      *string         `json:"deadline" example:"2025-12-31"`
}

// SavingsGoalUpdateRequest 更新储蓄目标请求
type SavingsGoalUpdateRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	Deadline      *string          `json:"deadline"`
	ClearDeadline bool             `json:"clear_deadline"` // 清除截止日期
}

// AddAmountRequest 追加储蓄请求
type AddAmountRequest struct {
	Amount decimal.Decimal `json:"amount" example:"100.00"`
}

// SavingsGoalResponse 储蓄目标响应，附带进度与剩余金额
type SavingsGoalResponse struct {
	ID                 uint            `json:"id"`
	Name               string          `json:"name"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	Deadline           *string         `json:"deadline"`
	ProgressPercentage float64         `json:"progress_percentage"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func buildSavingsGoalResponse(goal *models.SavingsGoal) SavingsGoalResponse {
	resp := SavingsGoalResponse{
		ID:                 goal.ID,
		Name:               goal.Name,
		TargetAmount:       goal.TargetAmount,
		CurrentAmount:      goal.CurrentAmount,
		ProgressPercentage: goal.ProgressPercentage(),
		RemainingAmount:    goal.RemainingAmount(),
		CreatedAt:          goal.CreatedAt,
		UpdatedAt:          goal.UpdatedAt,
	}
	if goal.Deadline != nil {
		deadline := goal.Deadline.Format(dateLayout)
		resp.Deadline = &deadline
	}
	return resp
}

var savingsGoalOrderings = map[string]string{
	"created_at":    "created_at",
	"deadline":      "deadline",
	"target_amount": "target_amount",
}

// List 获取储蓄目标列表
// @Summary 获取储蓄目标列表
// @Description 获取当前用户的储蓄目标列表，支持名称搜索和排序
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param search query string false "名称搜索（模糊匹配）"
// @Param ordering query string false "排序字段，如 -created_at 或 deadline"
// @Success 200 {object} Response{data=[]SavingsGoalResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/savings-goals [get]
func (h *SavingsGoalHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.SavingsGoal{}).Where("user_id = ?", userID)
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	order := orderingClause(c.Query("ordering"), savingsGoalOrderings, "created_at DESC")

	var goals []models.SavingsGoal
	if err := query.Order(order).Find(&goals).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	list := make([]SavingsGoalResponse, 0, len(goals))
	for i := range goals {
		list = append(list, buildSavingsGoalResponse(&goals[i]))
	}
	Success(c, list)
}

// Create 创建储蓄目标
// @Summary 创建储蓄目标
// @Description 创建新的储蓄目标，目标金额必须大于 0，已存金额不可为负
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SavingsGoalCreateRequest true "储蓄目标信息"
// @Success 200 {object} Response{data=SavingsGoalResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/savings-goals [post]
func (h *SavingsGoalHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SavingsGoalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}
	if !req.TargetAmount.IsPositive() {
		BadRequest(c, "目标金额必须大于 0")
		return
	}
	if req.CurrentAmount.IsNegative() {
		BadRequest(c, "已存金额不能为负数")
		return
	}

	goal := models.SavingsGoal{
		UserID:        userID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	if req.Deadline != nil && *req.Deadline != "" {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			BadRequest(c, "截止日期格式错误，应为: 2025-12-31")
			return
		}
		goal.Deadline = &deadline
	}

	if err := database.DB.Create(&goal).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建储蓄目标失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", buildSavingsGoalResponse(&goal))
}

// Get 获取单个储蓄目标
// @Summary 获取单个储蓄目标
// @Description 根据ID获取储蓄目标详情
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "储蓄目标ID"
// @Success 200 {object} Response{data=SavingsGoalResponse} "获取成功"
// @Failure 404 {object} Response "储蓄目标不存在"
// @Router /api/v1/savings-goals/{id} [get]
func (h *SavingsGoalHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.SavingsGoal
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		NotFound(c, "储蓄目标不存在")
		return
	}

	Success(c, buildSavingsGoalResponse(&goal))
}

// Update 更新储蓄目标
// @Summary 更新储蓄目标
// @Description 部分更新指定储蓄目标
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "储蓄目标ID"
// @Param request body SavingsGoalUpdateRequest true "更新的储蓄目标信息"
// @Success 200 {object} Response{data=SavingsGoalResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "储蓄目标不存在"
// @Router /api/v1/savings-goals/{id} [put]
func (h *SavingsGoalHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.SavingsGoal
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		NotFound(c, "储蓄目标不存在")
		return
	}

	var req SavingsGoalUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		updates["name"] = name
	}
	if req.TargetAmount != nil {
		if !req.TargetAmount.IsPositive() {
			BadRequest(c, "目标金额必须大于 0")
			return
		}
		updates["target_amount"] = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		if req.CurrentAmount.IsNegative() {
			BadRequest(c, "已存金额不能为负数")
			return
		}
		updates["current_amount"] = *req.CurrentAmount
	}
	if req.ClearDeadline {
		updates["deadline"] = gorm.Expr("NULL")
	} else if req.Deadline != nil && *req.Deadline != "" {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			BadRequest(c, "截止日期格式错误，应为: 2025-12-31")
			return
		}
		updates["deadline"] = deadline
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&goal).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
		database.DB.First(&goal, goal.ID)
	}

	SuccessWithMessage(c, "更新成功", buildSavingsGoalResponse(&goal))
}

// Delete 删除储蓄目标
// @Summary 删除储蓄目标
// @Description 删除指定储蓄目标
// @Tags 储蓄目标
// @Produce json
// @Security BearerAuth
// @Param id path int true "储蓄目标ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "储蓄目标不存在"
// @Router /api/v1/savings-goals/{id} [delete]
func (h *SavingsGoalHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.SavingsGoal
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		NotFound(c, "储蓄目标不存在")
		return
	}

	if err := database.DB.Delete(&goal).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// AddAmount 追加储蓄金额
// @Summary 追加储蓄金额
// @Description 向储蓄目标追加金额。追加金额必须大于 0；累计金额可超过目标金额。
// @Description 增量由数据库原子执行（current_amount = current_amount + ?），并发追加不会丢失更新
// @Tags 储蓄目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "储蓄目标ID"
// @Param request body AddAmountRequest true "追加金额"
// @Success 200 {object} Response{data=SavingsGoalResponse} "追加成功"
// @Failure 400 {object} Response "金额必须大于 0"
// @Failure 404 {object} Response "储蓄目标不存在"
// @Router /api/v1/savings-goals/{id}/add_amount [post]
func (h *SavingsGoalHandler) AddAmount(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var goal models.SavingsGoal
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		NotFound(c, "储蓄目标不存在")
		return
	}

	var req AddAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "金额格式错误")
		return
	}
	if !req.Amount.IsPositive() {
		BadRequest(c, "金额必须大于 0")
		return
	}

	// 由数据库执行增量，避免并发下读改写丢失更新
	if err := database.DB.Model(&goal).
		Update("current_amount", gorm.Expr("current_amount + ?", req.Amount)).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "追加失败"))
		return
	}

	database.DB.First(&goal, goal.ID)
	SuccessWithMessage(c, "追加成功", buildSavingsGoalResponse(&goal))
}
