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

// TagHandler 交易标签处理器
type TagHandler struct{}

// NewTagHandler 创建交易标签处理器
func NewTagHandler() *TagHandler {
	return &TagHandler{}
}

// TagCreateRequest 创建标签请求
type TagCreateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50" example:"出差"`
}

// TagUpdateRequest 更新标签请求
type TagUpdateRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=50"`
}

// TagResponse 标签响应，附带引用该标签的交易数
type TagResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	TransactionCount int64     `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
}

func buildTagResponse(tag *models.Tag, count int64) TagResponse {
	return TagResponse{
		ID:               tag.ID,
		Name:             tag.Name,
		TransactionCount: count,
		CreatedAt:        tag.CreatedAt,
	}
}

// tagTransactionCount 统计引用该标签的交易数
func tagTransactionCount(tagID uint) int64 {
	var count int64
	database.DB.Table("transaction_tags").Where("tag_id = ?", tagID).Count(&count)
	return count
}

var tagOrderings = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

// List 获取标签列表
// @Summary 获取标签列表
// @Description 获取当前用户的标签列表，支持名称搜索和排序
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param search query string false "名称搜索（模糊匹配）"
// @Param ordering query string false "排序字段，如 name 或 -created_at"
// @Success 200 {object} Response{data=[]TagResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	query := database.DB.Model(&models.Tag{}).Where("user_id = ?", userID)
	if search := c.Query("search"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	order := orderingClause(c.Query("ordering"), tagOrderings, "name ASC")

	var tags []models.Tag
	if err := query.Order(order).Find(&tags).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	list := make([]TagResponse, 0, len(tags))
	for i := range tags {
		list = append(list, buildTagResponse(&tags[i], tagTransactionCount(tags[i].ID)))
	}
	Success(c, list)
}

// Create 创建标签
// @Summary 创建标签
// @Description 创建新标签，同一用户下名称唯一
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TagCreateRequest true "标签信息"
// @Success 200 {object} Response{data=TagResponse} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "标签已存在"
// @Router /api/v1/tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TagCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(c, "名称不能为空")
		return
	}

	var existing models.Tag
	if err := database.DB.Where("user_id = ? AND name = ?", userID, req.Name).First(&existing).Error; err == nil {
		Conflict(c, "标签名称已存在")
		return
	}

	tag := models.Tag{UserID: userID, Name: req.Name}
	if err := database.DB.Create(&tag).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建标签失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", buildTagResponse(&tag, 0))
}

// Get 获取单个标签
// @Summary 获取单个标签
// @Description 根据ID获取标签详情
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签ID"
// @Success 200 {object} Response{data=TagResponse} "获取成功"
// @Failure 404 {object} Response "标签不存在"
// @Router /api/v1/tags/{id} [get]
func (h *TagHandler) Get(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var tag models.Tag
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tag).Error; err != nil {
		NotFound(c, "标签不存在")
		return
	}

	Success(c, buildTagResponse(&tag, tagTransactionCount(tag.ID)))
}

// Update 更新标签
// @Summary 更新标签
// @Description 更新指定标签名称
// @Tags 标签
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签ID"
// @Param request body TagUpdateRequest true "更新的标签信息"
// @Success 200 {object} Response{data=TagResponse} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "标签不存在"
// @Failure 409 {object} Response "标签已存在"
// @Router /api/v1/tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var tag models.Tag
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tag).Error; err != nil {
		NotFound(c, "标签不存在")
		return
	}

	var req TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Name == nil {
		Success(c, buildTagResponse(&tag, tagTransactionCount(tag.ID)))
		return
	}

	name := strings.TrimSpace(*req.Name)
	if name == "" {
		BadRequest(c, "名称不能为空")
		return
	}
	var existing models.Tag
	if err := database.DB.Where("user_id = ? AND name = ? AND id != ?", userID, name, tag.ID).
		First(&existing).Error; err == nil {
		Conflict(c, "标签名称已存在")
		return
	}

	if err := database.DB.Model(&tag).Update("name", name).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}
	database.DB.First(&tag, tag.ID)
	SuccessWithMessage(c, "更新成功", buildTagResponse(&tag, tagTransactionCount(tag.ID)))
}

// Delete 删除标签
// @Summary 删除标签
// @Description 删除指定标签并解除与交易的关联，交易本身保留
// @Tags 标签
// @Produce json
// @Security BearerAuth
// @Param id path int true "标签ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "标签不存在"
// @Router /api/v1/tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var tag models.Tag
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&tag).Error; err != nil {
		NotFound(c, "标签不存在")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// 先清理关联表，再删除标签
		if err := tx.Exec("DELETE FROM transaction_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
