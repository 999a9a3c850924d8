package api

import (
	"strconv"
	"strings"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 交易分类处理器
type CategoryHandler struct{}

// NewCategoryHandler 创建交易分类处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoryCreateRequest 创建分类请求
type CategoryCreateRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100" example:"餐饮"`
	Type  string `json:"type" binding:"required" example:"expense"` // income/expense
	Color string `json:"color" binding:"omitempty,max=7" example:"#ef4444"`
	Icon  string `json:"icon" binding:"omitempty,max=50" example:"restaurant"`
}

// CategoryUpdateRequest 更新分类请求
type CategoryUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Type  *string `json:"type"`
	Color *string `json:"color" binding:"omitempty,max=7"`
	Icon  *string `json:"icon" binding:"omitempty,max=50"`
}

// CategoryResponse 分类响应，附带引用该分类的交易数
type CategoryResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Color            string    `json:"color"`
	Icon             string    `json:"icon"`
	TransactionCount int64     `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func buildCategoryResponse(cat *models.Category, count int64) CategoryResponse {
	return CategoryResponse{
		ID:               cat.ID,
		Name:             cat.Name,
		Type:             cat.Type,
		Color:            cat.Color,
		Icon:             cat.Icon,
		TransactionCount: count,
		CreatedAt:        cat.CreatedAt,
		UpdatedAt:        cat.UpdatedAt,
	}
}

// categoryTransactionCount 统计引用该分类的交易数
func categoryTransactionCount(userID, categoryID uint) int64 {
	var count int64
	database.DB.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count)
	return count
}

var categoryOrderings = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

// List 获取分类列表
// @Summary 获取分类列表
// @Description 获取当前用户的分类列表，支持按类型筛选、名称搜索和排序
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param type query string false "类型筛选 income/expense"
// @Param search query string false "名称搜索（模糊匹配）"
// @Param ordering query string false "排序字段，如 name 或 -created_at"
// @Success 200 {object} Response{data=[]CategoryResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.Category{}).Where("user_id = ?", userID)

	// 类型筛选
	if catType := c.Query("type"); catType != "" {
		query = query.Where("type = ?", catType)
	}

	// 名称搜索
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	order := orderingClause(c.Query("ordering"), categoryOrderings, "name ASC")

	var categories []models.Category
	if err := query.Order(order).Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	// 一次查询统计各分类的交易数
	type categoryCount struct {
		CategoryID uint
		Count      int64
	}
	var counts []categoryCount
	database.DB.Model(&models.Transaction{}).
		Select("category_id, COUNT(*) as count").
		Where("user_id = ? AND category_id IS NOT NULL", userID).
		Group("category_id").
		Scan(&counts)
	countMap := make(map[uint]int64, len(counts))
	for _, cc := range counts {
		countMap[cc.CategoryID] = cc.Count
	}

	list := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		list = append(list, buildCategoryResponse(&categories[i], countMap[categories[i].ID]))
	}

	Success(c, list)
}

// Create 创建分类
// @Summary 创建分类
// @Description 创建新的交易分类，同一用户下 (名称, 类型) 唯一
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "分类信息"
// @Success 200 {object} Response{data=CategoryResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "分类已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}
	if !models.IsValidType(req.Type) {
		BadRequest(c, "类型必须为 income 或 expense")
		return
	}

	// 唯一性预检查，数据库唯一索引兜底
	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ? AND type = ?", userID, req.Name, req.Type).
		First(&existing).Error; err == nil {
		Conflict(c, "同名同类型的分类已存在")
		return
	}

	color := req.Color
	if color == "" {
		color = "#1976d2" // 默认蓝色
	}
	cat := models.Category{
		UserID: userID,
		Name:   req.Name,
		Type:   req.Type,
		Color:  color,
		Icon:   req.Icon,
	}
	if err := database.DB.Create(&cat).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建分类失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", buildCategoryResponse(&cat, 0))
}

// Get 获取单个分类
// @Summary 获取单个分类
// @Description 根据ID获取分类详情
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response{data=CategoryResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	Success(c, buildCategoryResponse(&cat, categoryTransactionCount(userID, cat.ID)))
}

// Update 更新分类
// @Summary 更新分类
// @Description 部分更新指定分类
// @Tags 分类
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Param request body CategoryUpdateRequest true "更新的分类信息"
// @Success 200 {object} Response{data=CategoryResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "分类不存在"
// @Failure 409 {object} Response "分类已存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := map[string]interface{}{}
	name := cat.Name
	catType := cat.Type
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(c, "名称不能为空")
			return
		}
		updates["name"] = name
	}
	if req.Type != nil {
		if !models.IsValidType(*req.Type) {
			BadRequest(c, "类型必须为 income 或 expense")
			return
		}
		catType = *req.Type
		updates["type"] = catType
	}
	if req.Name != nil || req.Type != nil {
		var existing models.Category
		if err := database.DB.Where("user_id = ? AND name = ? AND type = ? AND id != ?",
			userID, name, catType, cat.ID).First(&existing).Error; err == nil {
			Conflict(c, "同名同类型的分类已存在")
			return
		}
	}
	if req.Color != nil {
		color := *req.Color
		if color == "" {
			color = "#1976d2"
		}
		updates["color"] = color
	}
	if req.Icon != nil {
		updates["icon"] = *req.Icon
	}
	if len(updates) == 0 {
		Success(c, buildCategoryResponse(&cat, categoryTransactionCount(userID, cat.ID)))
		return
	}

	if err := database.DB.Model(&cat).Updates(updates).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&cat, cat.ID)
	SuccessWithMessage(c, "更新成功", buildCategoryResponse(&cat, categoryTransactionCount(userID, cat.ID)))
}

// Delete 删除分类
// @Summary 删除分类
// @Description 删除指定分类。引用该分类的交易保留并置空分类字段，该分类下的预算一并删除
// @Tags 分类
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类ID"
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "分类不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		NotFound(c, "分类不存在")
		return
	}

	// 交易保留、分类引用置空；预算随分类删除
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, cat.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND category_id = ?", userID, cat.ID).
			Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
