package api

import (
	"fintrack/config"
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50" example:"testuser"`
	Email     string `json:"email" binding:"required,email" example:"test@example.com"`
	Password  string `json:"password" binding:"required,min=6,max=50" example:"password123"`
	FirstName string `json:"first_name" binding:"omitempty,max=50" example:"San"`
	LastName  string `json:"last_name" binding:"omitempty,max=50" example:"Zhang"`
}

// TokenPair 令牌对
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	User   models.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号并返回访问令牌与刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} Response{data=AuthResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "用户名已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 检查用户名是否已存在
	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		Conflict(c, "用户名已存在")
		return
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	// 创建用户
	user := models.User{
		Username:  req.Username,
		Password:  string(hashedPassword),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建用户失败"))
		return
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	SuccessWithMessage(c, "注册成功", AuthResponse{
		User:   user,
		Tokens: TokenPair{Access: access, Refresh: refresh},
	})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户登录获取访问令牌与刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=AuthResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 查找用户
	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "用户名或密码错误")
		return
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, AuthResponse{
		User:   user,
		Tokens: TokenPair{Access: access, Refresh: refresh},
	})
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh 刷新令牌
// @Summary 刷新令牌
// @Description 使用未注销的刷新令牌换取新的令牌对
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "刷新令牌"
// @Success 200 {object} Response{data=TokenPair} "刷新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "刷新令牌无效或已注销"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	claims, err := middleware.ParseToken(req.Refresh)
	if err != nil || claims.TokenType != middleware.TokenTypeRefresh {
		Unauthorized(c, "刷新令牌无效或已过期")
		return
	}

	// 已注销的刷新令牌不可再用
	var revoked models.RevokedToken
	if err := database.DB.Where("jti = ?", claims.ID).First(&revoked).Error; err == nil {
		Unauthorized(c, "刷新令牌已注销，请重新登录")
		return
	}

	access, refresh, err := middleware.GenerateTokenPair(claims.UserID, claims.Username)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, TokenPair{Access: access, Refresh: refresh})
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销刷新令牌。令牌非法时返回通用错误信息，注销成功（含重复注销）始终返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest true "刷新令牌"
// @Success 200 {object} Response "登出成功"
// @Failure 400 {object} Response "刷新令牌无效"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	// 未携带令牌也视为登出成功
	if req.RefreshToken == "" {
		SuccessWithMessage(c, "已退出登录", nil)
		return
	}

	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil || claims.TokenType != middleware.TokenTypeRefresh {
		BadRequest(c, "无效的刷新令牌")
		return
	}

	revoked := models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	// 重复注销（jti 已在黑名单）同样返回成功
	if err := database.DB.Create(&revoked).Error; err != nil {
		var existing models.RevokedToken
		if dbErr := database.DB.Where("jti = ?", claims.ID).First(&existing).Error; dbErr != nil {
			InternalError(c, SafeErrorMessage(err, "注销令牌失败"))
			return
		}
	}

	SuccessWithMessage(c, "已退出登录", nil)
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Description 获取当前登录用户的详细信息
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	Success(c, user)
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	Password  *string `json:"password"` // 不允许在此接口修改密码，静默忽略
}

// UpdateProfile 更新当前用户信息
// @Summary 更新当前用户信息
// @Description 部分更新当前用户信息。请求中的 password 字段会被忽略
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "更新的用户信息"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "用户名已存在"
// @Router /api/v1/auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		var existing models.User
		if err := database.DB.Where("username = ? AND id != ?", *req.Username, user.ID).First(&existing).Error; err == nil {
			Conflict(c, "用户名已存在")
			return
		}
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
		database.DB.First(&user, user.ID)
	}

	SuccessWithMessage(c, "更新成功", user)
}
