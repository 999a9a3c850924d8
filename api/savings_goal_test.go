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

func savingsGoalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "target_amount", "current_amount", "deadline", "created_at", "updated_at", "deleted_at"})
}

func TestSavingsGoalHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `savings_goals`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/savings-goals", NewSavingsGoalHandler().Create)

	body := `{"name":"应急基金","target_amount":10000,"current_amount":2500,"deadline":"2025-12-31"}`
	req := httptest.NewRequest("POST", "/savings-goals", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(25), data["progress_percentage"])
	assert.Equal(t, "7500", data["remaining_amount"])
	assert.Equal(t, "2025-12-31", data["deadline"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavingsGoalHandler_Create_InvalidTarget(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/savings-goals", NewSavingsGoalHandler().Create)

	body := `{"name":"应急基金","target_amount":0}`
	req := httptest.NewRequest("POST", "/savings-goals", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "目标金额必须大于 0", resp["message"])
}

func TestSavingsGoalHandler_AddAmount(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `savings_goals`").
		WithArgs(1, 1).
		WillReturnRows(savingsGoalRows().
			AddRow(1, 1, "应急基金", "10000", "2500", nil, time.Now(), time.Now(), nil))

	// 增量由数据库执行
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `savings_goals` SET `current_amount`=current_amount \\+").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 重新加载
	mock.ExpectQuery("SELECT .* FROM `savings_goals`").
		WillReturnRows(savingsGoalRows().
			AddRow(1, 1, "应急基金", "10000", "3000", nil, time.Now(), time.Now(), nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/savings-goals/:id/add_amount", NewSavingsGoalHandler().AddAmount)

	body := `{"amount":500}`
	req := httptest.NewRequest("POST", "/savings-goals/1/add_amount", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "追加成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "3000", data["current_amount"])
	assert.Equal(t, float64(30), data["progress_percentage"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavingsGoalHandler_AddAmount_InvalidAmount(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/savings-goals/:id/add_amount", NewSavingsGoalHandler().AddAmount)

	for _, body := range []string{`{"amount":0}`, `{"amount":-100}`} {
		mock.ExpectQuery("SELECT .* FROM `savings_goals`").
			WithArgs(1, 1).
			WillReturnRows(savingsGoalRows().
				AddRow(1, 1, "应急基金", "10000", "2500", nil, time.Now(), time.Now(), nil))

		req := httptest.NewRequest("POST", "/savings-goals/1/add_amount", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "金额必须大于 0", resp["message"])
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSavingsGoalHandler_AddAmount_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `savings_goals`").
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/savings-goals/:id/add_amount", NewSavingsGoalHandler().AddAmount)

	body := `{"amount":100}`
	req := httptest.NewRequest("POST", "/savings-goals/7/add_amount", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
