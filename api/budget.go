package api

import (
	"strconv"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BudgetHandler 预算处理器
type BudgetHandler struct{}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{}
}

// BudgetCreateRequest 创建预算请求
type BudgetCreateRequest struct {
	Category uint            `json:"category" binding:"required"`
	Amount   decimal.Decimal `json:"amount" example:"1000.00"`
	Period   string          `json:"period" example:"monthly"` // monthly/yearly，默认 monthly
	Year     int             `json:"year" binding:"required" example:"2024"`
	Month    *int            `json:"month" example:"1"` // 月度预算必填，1-12
}

// BudgetUpdateRequest 更新预算请求
type BudgetUpdateRequest struct {
	Category *uint            `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
	Period   *string          `json:"period"`
	Year     *int             `json:"year"`
	Month    *int             `json:"month"`
}

// BudgetResponse 预算响应，附带已用/剩余金额与进度
type BudgetResponse struct {
	ID                 uint            `json:"id"`
	Category           uint            `json:"category"`
	CategoryName       string          `json:"category_name"`
	Amount             decimal.Decimal `json:"amount"`
	Period             string          `json:"period"`
	Year               int             `json:"year"`
	Month              *int            `json:"month"`
	SpentAmount        decimal.Decimal `json:"spent_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage float64         `json:"progress_percentage"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// budgetSpentAmount 统计预算周期内该分类的支出总额
func budgetSpentAmount(budget *models.Budget) decimal.Decimal {
	query := database.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ? AND YEAR(date) = ?",
			budget.UserID, budget.CategoryID, models.TypeExpense, budget.Year)
	if budget.Period == models.PeriodMonthly && budget.Month != 0 {
		query = query.Where("MONTH(date) = ?", budget.Month)
	}

	var spent decimal.Decimal
	query.Scan(&spent)
	return spent
}

func buildBudgetResponse(budget *models.Budget, categoryName string) BudgetResponse {
	spent := budgetSpentAmount(budget)
	var month *int
	if budget.Month != 0 {
		m := budget.Month
		month = &m
	}
	return BudgetResponse{
		ID:                 budget.ID,
		Category:           budget.CategoryID,
		CategoryName:       categoryName,
		Amount:             budget.Amount,
		Period:             budget.Period,
		Year:               budget.Year,
		Month:              month,
		SpentAmount:        spent,
		RemainingAmount:    budget.RemainingAmount(spent),
		ProgressPercentage: budget.ProgressPercentage(spent),
		CreatedAt:          budget.CreatedAt,
		UpdatedAt:          budget.UpdatedAt,
	}
}

// budgetExists 预算唯一性预检查，年度预算 month 按 0 比较
func budgetExists(userID, categoryID uint, year, month int, period string, excludeID uint) bool {
	query := database.DB.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND year = ? AND period = ? AND month = ?",
			userID, categoryID, year, period, month)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	var count int64
	query.Count(&count)
	return count > 0
}

// validateBudgetPeriod 校验周期与月份的一致性，返回规范化后的月份，年度预算为 0
func validateBudgetPeriod(period string, month *int) (int, string) {
	if !models.IsValidPeriod(period) {
		return 0, "周期必须为 monthly 或 yearly"
	}
	if period == models.PeriodMonthly {
		if month == nil {
			return 0, "月度预算必须指定 month"
		}
		if *month < 1 || *month > 12 {
			return 0, "month 必须在 1-12 之间"
		}
		return *month, ""
	}
	// 年度预算不携带月份，存 0
	return 0, ""
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 获取当前用户的预算列表，每条附带已用、剩余金额与进度百分比
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param year query int false "年份筛选"
// @Param period query string false "周期筛选 monthly/yearly"
// @Param ordering query string false "排序字段，如 -year 或 created_at"
// @Success 200 {object} Response{data=[]BudgetResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.Budget{}).Where("user_id = ?", userID)

	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			query = query.Where("year = ?", year)
		}
	}
	if period := c.Query("period"); period != "" {
		query = query.Where("period = ?", period)
	}

	order := orderingClause(c.Query("ordering"), map[string]string{
		"year":       "year",
		"month":      "month",
		"created_at": "created_at",
	}, "year DESC, month DESC")

	var budgets []models.Budget
	if err := query.Preload("Category").Order(order).Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	list := make([]BudgetResponse, 0, len(budgets))
	for i := range budgets {
		list = append(list, buildBudgetResponse(&budgets[i], budgets[i].Category.Name))
	}
	Success(c, list)
}

// Create 创建预算
// @Summary 创建预算
// @Description 为支出类分类创建预算。同一用户下 (分类, 年, 月, 周期) 唯一
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetCreateRequest true "预算信息"
// @Success 200 {object} Response{data=BudgetResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "预算已存在"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req BudgetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !req.Amount.IsPositive() {
		BadRequest(c, "金额必须大于 0")
		return
	}
	if req.Period == "" {
		req.Period = models.PeriodMonthly
	}
	month, msg := validateBudgetPeriod(req.Period, req.Month)
	if msg != "" {
		BadRequest(c, msg)
		return
	}

	// 仅支出类分类可设预算
	cat, err := fetchOwnedCategory(userID, req.Category)
	if err != nil {
		BadRequest(c, "分类不存在")
		return
	}
	if cat.Type != models.TypeExpense {
		BadRequest(c, "只能为支出类分类设置预算")
		return
	}

	if budgetExists(userID, req.Category, req.Year, month, req.Period, 0) {
		Conflict(c, "该分类在此周期的预算已存在")
		return
	}

	budget := models.Budget{
		UserID:     userID,
		CategoryID: req.Category,
		Amount:     req.Amount,
		Period:     req.Period,
		Year:       req.Year,
		Month:      month,
	}
	if err := database.DB.Create(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建预算失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", buildBudgetResponse(&budget, cat.Name))
}

// Get 获取单个预算
// @Summary 获取单个预算
// @Description 根据ID获取预算详情，附带已用、剩余金额与进度
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=BudgetResponse} "获取成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	Success(c, buildBudgetResponse(&budget, budget.Category.Name))
}

// Update 更新预算
// @Summary 更新预算
// @Description 部分更新指定预算，变更后仍需满足周期一致性与唯一性约束
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body BudgetUpdateRequest true "更新的预算信息"
// @Success 200 {object} Response{data=BudgetResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "预算不存在"
// @Failure 409 {object} Response "预算已存在"
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	var req BudgetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 合并字段后整体校验
	categoryID := budget.CategoryID
	period := budget.Period
	year := budget.Year
	monthReq := req.Month
	if monthReq == nil && budget.Month != 0 {
		m := budget.Month
		monthReq = &m
	}

	updates := map[string]interface{}{}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			BadRequest(c, "金额必须大于 0")
			return
		}
		updates["amount"] = *req.Amount
	}
	if req.Period != nil {
		period = *req.Period
	}
	if req.Year != nil {
		year = *req.Year
		updates["year"] = year
	}
	month, msg := validateBudgetPeriod(period, monthReq)
	if msg != "" {
		BadRequest(c, msg)
		return
	}
	if req.Period != nil || req.Month != nil {
		updates["period"] = period
		updates["month"] = month
	}

	categoryName := ""
	if req.Category != nil {
		cat, err := fetchOwnedCategory(userID, *req.Category)
		if err != nil {
			BadRequest(c, "分类不存在")
			return
		}
		if cat.Type != models.TypeExpense {
			BadRequest(c, "只能为支出类分类设置预算")
			return
		}
		categoryID = *req.Category
		categoryName = cat.Name
		updates["category_id"] = categoryID
	}

	if budgetExists(userID, categoryID, year, month, period, budget.ID) {
		Conflict(c, "该分类在此周期的预算已存在")
		return
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&budget).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	database.DB.Preload("Category").First(&budget, budget.ID)
	if categoryName == "" {
		categoryName = budget.Category.Name
	}
	SuccessWithMessage(c, "更新成功", buildBudgetResponse(&budget, categoryName))
}

// Delete 删除预算
// @Summary 删除预算
// @Description 删除指定预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var budget models.Budget
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error; err != nil {
		NotFound(c, "预算不存在")
		return
	}

	if err := database.DB.Delete(&budget).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
