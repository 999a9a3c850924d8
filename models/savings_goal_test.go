package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSavingsGoalProgressPercentage(t *testing.T) {
	goal := &SavingsGoal{
		TargetAmount:  decimal.NewFromInt(200),
		CurrentAmount: decimal.NewFromInt(50),
	}
	assert.Equal(t, 25.0, goal.ProgressPercentage())
	assert.True(t, decimal.NewFromInt(150).Equal(goal.RemainingAmount()))

	// 超出目标：进度封顶 100，剩余为 0
	goal.CurrentAmount = decimal.NewFromInt(250)
	assert.Equal(t, 100.0, goal.ProgressPercentage())
	assert.True(t, goal.RemainingAmount().IsZero())

	// 目标为 0 时进度为 0
	goal.TargetAmount = decimal.Zero
	assert.Equal(t, 0.0, goal.ProgressPercentage())
}

func TestSavingsGoalProgressRounding(t *testing.T) {
	goal := &SavingsGoal{
		TargetAmount:  decimal.NewFromInt(300),
		CurrentAmount: decimal.NewFromInt(100),
	}
	// 1/3 → 33.33，保留两位小数
	assert.Equal(t, 33.33, goal.ProgressPercentage())
}

func TestBudgetProgress(t *testing.T) {
	budget := &Budget{Amount: decimal.NewFromInt(100)}

	// 超支：剩余为负数，进度封顶 100
	spent := decimal.NewFromInt(150)
	assert.True(t, decimal.NewFromInt(-50).Equal(budget.RemainingAmount(spent)))
	assert.Equal(t, 100.0, budget.ProgressPercentage(spent))

	spent = decimal.NewFromInt(25)
	assert.Equal(t, 25.0, budget.ProgressPercentage(spent))
	assert.True(t, decimal.NewFromInt(75).Equal(budget.RemainingAmount(spent)))

	// 预算金额为 0 时进度为 0
	budget.Amount = decimal.Zero
	assert.Equal(t, 0.0, budget.ProgressPercentage(spent))
}
