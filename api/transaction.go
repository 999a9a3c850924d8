package api

import (
	"strconv"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler 交易记录处理器
type TransactionHandler struct{}

// NewTransactionHandler 创建交易记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

// TransactionCreateRequest 创建交易请求
type TransactionCreateRequest struct {
	Amount      decimal.Decimal `json:"amount" example:"99.99"`
	Type        string          `json:"type" binding:"required" example:"expense"` // income/expense
	Date        string          `json:"date" binding:"required" example:"2024-01-15"`
	Description string          `json:"description" binding:"omitempty,max=500" example:"午餐"`
	Category    *uint           `json:"category"`
	Tags        []uint          `json:"tags"`
}

// TransactionUpdateRequest 更新交易请求
type TransactionUpdateRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Type        *string          `json:"type"`
	Date        *string          `json:"date"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Category    *uint            `json:"category"`
	ClearCat    bool             `json:"clear_category"` // 置空分类引用
	Tags        *[]uint          `json:"tags"`
}

// TransactionListRequest 交易列表请求
type TransactionListRequest struct {
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"20"`
	Type      string `form:"type" example:"expense"`
	Category  uint   `form:"category"`
	StartDate string `form:"start_date" example:"2024-01-01"`
	EndDate   string `form:"end_date" example:"2024-12-31"`
	Search    string `form:"search"`
	Ordering  string `form:"ordering"`
}

// TransactionResponse 交易响应，附带分类与标签信息
type TransactionResponse struct {
	ID            uint            `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Category      *uint           `json:"category"`
	CategoryName  string          `json:"category_name"`
	CategoryColor string          `json:"category_color"`
	Tags          []uint          `json:"tags"`
	TagsList      []string        `json:"tags_list"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func buildTransactionResponse(txn *models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          txn.ID,
		Amount:      txn.Amount,
		Type:        txn.Type,
		Date:        txn.Date.Format(dateLayout),
		Description: txn.Description,
		Category:    txn.CategoryID,
		Tags:        make([]uint, 0, len(txn.Tags)),
		TagsList:    make([]string, 0, len(txn.Tags)),
		CreatedAt:   txn.CreatedAt,
		UpdatedAt:   txn.UpdatedAt,
	}
	if txn.Category != nil {
		resp.CategoryName = txn.Category.Name
		resp.CategoryColor = txn.Category.Color
	}
	for _, tag := range txn.Tags {
		resp.Tags = append(resp.Tags, tag.ID)
		resp.TagsList = append(resp.TagsList, tag.Name)
	}
	return resp
}

// fetchOwnedCategory 获取当前用户的分类，不存在返回错误
func fetchOwnedCategory(userID, categoryID uint) (*models.Category, error) {
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, userID).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// fetchOwnedTags 获取当前用户的标签集合，任一不存在即返回 false
// 重复的标签ID按集合语义去重
func fetchOwnedTags(userID uint, tagIDs []uint) ([]models.Tag, bool) {
	if len(tagIDs) == 0 {
		return nil, true
	}
	seen := make(map[uint]struct{}, len(tagIDs))
	ids := make([]uint, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	var tags []models.Tag
	if err := database.DB.Where("user_id = ? AND id IN ?", userID, ids).Find(&tags).Error; err != nil {
		return nil, false
	}
	if len(tags) != len(ids) {
		return nil, false
	}
	return tags, true
}

var transactionOrderings = map[string]string{
	"date":       "transactions.date",
	"amount":     "transactions.amount",
	"created_at": "transactions.created_at",
}

// Create 创建交易
// @Summary 创建交易
// @Description 创建一条收入或支出记录。指定分类时，分类的收支类型必须与交易一致
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionCreateRequest true "交易信息"
// @Success 200 {object} Response{data=TransactionResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if !req.Amount.IsPositive() {
		BadRequest(c, "金额必须大于 0")
		return
	}
	if !models.IsValidType(req.Type) {
		BadRequest(c, "类型必须为 income 或 expense")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2024-01-15")
		return
	}

	txn := models.Transaction{
		UserID:      userID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        date,
		Description: req.Description,
	}

	// 分类类型必须与交易类型一致
	if req.Category != nil {
		cat, err := fetchOwnedCategory(userID, *req.Category)
		if err != nil {
			BadRequest(c, "分类不存在")
			return
		}
		if cat.Type != req.Type {
			BadRequest(c, "分类类型与交易类型不一致")
			return
		}
		txn.CategoryID = req.Category
		txn.Category = cat
	}

	tags, ok := fetchOwnedTags(userID, req.Tags)
	if !ok {
		BadRequest(c, "标签不存在")
		return
	}
	txn.Tags = tags

	// 分类与标签行已存在，创建时只写交易本身和 transaction_tags 关联
	if err := database.DB.Omit("Category", "Tags.*").Create(&txn).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建交易失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", buildTransactionResponse(&txn))
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 获取当前用户的交易列表，支持分页、类型/分类/日期范围筛选、描述与分类名搜索及排序
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param type query string false "类型筛选 income/expense"
// @Param category query int false "分类ID筛选"
// @Param start_date query string false "开始日期 (2024-01-01)，含当天"
// @Param end_date query string false "结束日期 (2024-12-31)，含当天"
// @Param search query string false "搜索描述或分类名"
// @Param ordering query string false "排序字段，如 -date 或 amount"
// @Success 200 {object} Response{data=PageResponse{list=[]TransactionResponse}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("transactions.user_id = ?", userID)

	if req.Type != "" {
		query = query.Where("transactions.type = ?", req.Type)
	}
	if req.Category != 0 {
		query = query.Where("transactions.category_id = ?", req.Category)
	}

	// 日期范围筛选（闭区间）
	if req.StartDate != "" {
		if start, err := parseDate(req.StartDate); err == nil {
			query = query.Where("transactions.date >= ?", start)
		}
	}
	if req.EndDate != "" {
		if end, err := parseDate(req.EndDate); err == nil {
			query = query.Where("transactions.date <= ?", end)
		}
	}

	// 搜索描述或分类名
	if req.Search != "" {
		like := "%" + req.Search + "%"
		query = query.
			Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
			Where("(transactions.description LIKE ? OR categories.name LIKE ?)", like, like)
	}

	var total int64
	query.Count(&total)

	order := orderingClause(req.Ordering, transactionOrderings, "transactions.date DESC, transactions.created_at DESC")

	var transactions []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").Preload("Tags").
		Order(order).Offset(offset).Limit(req.PageSize).
		Find(&transactions).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	list := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		list = append(list, buildTransactionResponse(&transactions[i]))
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     list,
	})
}

// Get 获取单条交易
// @Summary 获取单条交易
// @Description 根据ID获取交易详情
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=TransactionResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Preload("Category").Preload("Tags").
		Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易不存在")
		return
	}

	Success(c, buildTransactionResponse(&txn))
}

// Update 更新交易
// @Summary 更新交易
// @Description 部分更新指定交易。变更后的分类类型必须与交易类型一致
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body TransactionUpdateRequest true "交易信息"
// @Success 200 {object} Response{data=TransactionResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易不存在")
		return
	}

	var req TransactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}

	txnType := txn.Type
	if req.Type != nil {
		if !models.IsValidType(*req.Type) {
			BadRequest(c, "类型必须为 income 或 expense")
			return
		}
		txnType = *req.Type
		updates["type"] = txnType
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			BadRequest(c, "金额必须大于 0")
			return
		}
		updates["amount"] = *req.Amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2024-01-15")
			return
		}
		updates["date"] = date
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	// 分类变更或类型变更后都要重新校验分类/交易类型一致性
	categoryID := txn.CategoryID
	if req.ClearCat {
		categoryID = nil
		updates["category_id"] = nil
	} else if req.Category != nil {
		categoryID = req.Category
		updates["category_id"] = *req.Category
	}
	if categoryID != nil {
		cat, err := fetchOwnedCategory(userID, *categoryID)
		if err != nil {
			BadRequest(c, "分类不存在")
			return
		}
		if cat.Type != txnType {
			BadRequest(c, "分类类型与交易类型不一致")
			return
		}
	}

	var newTags []models.Tag
	if req.Tags != nil {
		tags, ok := fetchOwnedTags(userID, *req.Tags)
		if !ok {
			BadRequest(c, "标签不存在")
			return
		}
		newTags = tags
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&txn).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}
	if req.Tags != nil {
		if err := database.DB.Model(&txn).Association("Tags").Replace(newTags); err != nil {
			InternalError(c, SafeErrorMessage(err, "更新标签失败"))
			return
		}
	}

	// 重新获取更新后的记录
	database.DB.Preload("Category").Preload("Tags").First(&txn, txn.ID)
	SuccessWithMessage(c, "更新成功", buildTransactionResponse(&txn))
}

// Delete 删除交易
// @Summary 删除交易
// @Description 删除指定交易
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var txn models.Transaction
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&txn).Error; err != nil {
		NotFound(c, "交易不存在")
		return
	}

	if err := database.DB.Delete(&txn).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// SummaryResponse 收支汇总响应
type SummaryResponse struct {
	StartDate        string          `json:"start_date"`
	EndDate          string          `json:"end_date"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

// currentMonthRange 计算 today 所在自然月的首日与末日
// 末日为下月首日减一天，跨年（12月）同样成立
func currentMonthRange(today time.Time) (start, end time.Time) {
	start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	end = start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, end
}

// sumTransactionAmount 汇总指定类型交易金额
func sumTransactionAmount(db *gorm.DB, userID uint, txnType string, start, end time.Time) decimal.Decimal {
	var total decimal.Decimal
	db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?", userID, txnType, start, end).
		Scan(&total)
	return total
}

// Summary 获取收支汇总
// @Summary 获取收支汇总
// @Description 统计日期范围内的收入、支出、结余和交易笔数。未完整指定范围时默认为当前自然月
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=SummaryResponse} "获取成功"
// @Failure 400 {object} Response "日期格式错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions/summary [get]
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	var start, end time.Time
	var err error
	if startStr == "" || endStr == "" {
		start, end = currentMonthRange(time.Now())
	} else {
		if start, err = parseDate(startStr); err != nil {
			BadRequest(c, "start_date格式错误，应为: 2024-01-01")
			return
		}
		if end, err = parseDate(endStr); err != nil {
			BadRequest(c, "end_date格式错误，应为: 2024-12-31")
			return
		}
	}

	totalIncome := sumTransactionAmount(database.DB, userID, models.TypeIncome, start, end)
	totalExpenses := sumTransactionAmount(database.DB, userID, models.TypeExpense, start, end)

	var count int64
	database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Count(&count)

	Success(c, SummaryResponse{
		StartDate:        start.Format(dateLayout),
		EndDate:          end.Format(dateLayout),
		TotalIncome:      totalIncome,
		TotalExpenses:    totalExpenses,
		Balance:          totalIncome.Sub(totalExpenses),
		TransactionCount: count,
	})
}
