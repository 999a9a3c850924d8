package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "created_at"})
}

func TestTagHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 唯一性预检查：无同名标签
	mock.ExpectQuery("SELECT .* FROM `tags`").
		WithArgs(1, "出差").
		WillReturnRows(sqlmock.NewRows([]string{}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tags`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/tags", NewTagHandler().Create)

	body := `{"name":"出差"}`
	req := httptest.NewRequest("POST", "/tags", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagHandler_Create_Duplicate(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `tags`").
		WithArgs(1, "出差").
		WillReturnRows(tagRows().
			AddRow(4, 1, "出差", time.Now()))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/tags", NewTagHandler().Create)

	body := `{"name":"出差"}`
	req := httptest.NewRequest("POST", "/tags", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 409, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "标签名称已存在", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagHandler_Delete(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `tags`").
		WithArgs(4, 1).
		WillReturnRows(tagRows().
			AddRow(4, 1, "出差", time.Now()))

	// 事务内：清理关联表 -> 删除标签
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM transaction_tags WHERE tag_id = ?").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `tags`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/tags/:id", NewTagHandler().Delete)

	req := httptest.NewRequest("DELETE", "/tags/4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "删除成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagHandler_Get_OtherUsersTag(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `tags`").
		WithArgs(8, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/tags/:id", NewTagHandler().Get)

	req := httptest.NewRequest("GET", "/tags/8", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
