package service

import (
	"context"
	"testing"
	"time"

	"carteira/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discretionary = []string{"lazer", "desejos", "diversos"}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func datePtr(d models.Date) *models.Date {
	return &d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, money(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestProject_DailyAverageBoundary(t *testing.T) {
	// 30 天的月份，第 10 天：已支付必要支出 300
	today := models.NewDate(2024, time.June, 10)
	r := Project(ProjectionInput{
		Today: today,
		Expenses: []models.Expense{
			{Name: "Mercado", Amount: money("300"), Category: "alimentacao", DueDate: today, PaymentDate: datePtr(today)},
		},
		FixedIncome:             money("3000"),
		DiscretionaryCategories: discretionary,
	})

	assert.Equal(t, "2024-06", r.Month)
	assert.Equal(t, 20, r.RemainingDays)
	assertMoney(t, "3000", r.FixedIncome, "fixed")
	assertMoney(t, "0", r.ExtraIncome, "extra")
	assertMoney(t, "300", r.PaidSoFar, "paid")
	assertMoney(t, "0", r.UnpaidEssential, "unpaid")
	assertMoney(t, "30", r.DailyAverage, "daily")
	assertMoney(t, "600", r.ProjectedRemainingVariable, "projected")
	assertMoney(t, "900", r.TotalProjected, "total")
	assertMoney(t, "2100", r.Balance, "balance")
}

func TestProject_Classification(t *testing.T) {
	today := models.NewDate(2024, time.June, 15)
	mayPaid := models.NewDate(2024, time.May, 28)
	r := Project(ProjectionInput{
		Today: today,
		Expenses: []models.Expense{
			// 已支付、固定：计入 paidSoFar，不计入日均
			{Amount: money("1200"), Category: "moradia", IsFixed: true, DueDate: models.NewDate(2024, time.June, 5), PaymentDate: datePtr(models.NewDate(2024, time.June, 5))},
			// 已支付、非必要类别：计入 paidSoFar，不计入日均
			{Amount: money("150"), Category: "Lazer", DueDate: models.NewDate(2024, time.June, 7), PaymentDate: datePtr(models.NewDate(2024, time.June, 7))},
			// 已支付、可变必要：计入 paidSoFar 和日均
			{Amount: money("450"), Category: "alimentacao", DueDate: models.NewDate(2024, time.June, 3), PaymentDate: datePtr(models.NewDate(2024, time.June, 3))},
			// 未支付、本月到期、必要
			{Amount: money("200"), Category: "contas", DueDate: models.NewDate(2024, time.June, 20)},
			// 未支付、本月到期、非必要且非固定：不计入
			{Amount: money("80"), Category: "desejos", DueDate: models.NewDate(2024, time.June, 25)},
			// 未支付、本月到期、非必要但固定：计入
			{Amount: money("50"), Category: "diversos", IsFixed: true, DueDate: models.NewDate(2024, time.June, 28)},
			// 未支付、下月到期：不相关
			{Amount: money("999"), Category: "contas", DueDate: models.NewDate(2024, time.July, 1)},
			// 上月支付、本月到期：支付日期不在本月，不相关
			{Amount: money("777"), Category: "contas", DueDate: models.NewDate(2024, time.June, 2), PaymentDate: &mayPaid},
		},
		ExtraIncomes: []models.ExtraIncome{
			{Amount: money("500"), ReceivedDate: models.NewDate(2024, time.June, 1)},
			{Amount: money("300"), ReceivedDate: models.NewDate(2024, time.May, 30)},
		},
		FixedIncome:             money("4000"),
		DiscretionaryCategories: discretionary,
	})

	assertMoney(t, "1800", r.PaidSoFar, "paid")
	assertMoney(t, "250", r.UnpaidEssential, "unpaid")
	assertMoney(t, "30", r.DailyAverage, "daily")
	assert.Equal(t, 15, r.RemainingDays)
	assertMoney(t, "450", r.ProjectedRemainingVariable, "projected")
	assertMoney(t, "2500", r.TotalProjected, "total")
	assertMoney(t, "500", r.ExtraIncome, "extra")
	assertMoney(t, "2000", r.Balance, "balance")
}

func TestProject_LastDayOfMonth(t *testing.T) {
	today := models.NewDate(2024, time.February, 29)
	r := Project(ProjectionInput{
		Today: today,
		Expenses: []models.Expense{
			{Amount: money("290"), Category: "alimentacao", DueDate: today, PaymentDate: datePtr(today)},
		},
		FixedIncome: money("1000"),
	})
	assert.Equal(t, 0, r.RemainingDays)
	assertMoney(t, "10", r.DailyAverage, "daily")
	assertMoney(t, "0", r.ProjectedRemainingVariable, "projected")
	assertMoney(t, "290", r.TotalProjected, "total")
}

func TestProject_MarkPaidThenUnpaidRestoresState(t *testing.T) {
	today := models.NewDate(2024, time.June, 10)
	base := models.Expense{Amount: money("120"), Category: "saude", DueDate: models.NewDate(2024, time.June, 18)}
	input := func(e models.Expense) ProjectionInput {
		return ProjectionInput{
			Today:                   today,
			Expenses:                []models.Expense{e},
			FixedIncome:             money("2000"),
			DiscretionaryCategories: discretionary,
		}
	}

	never := Project(input(base))

	paid := base
	paid.PaymentDate = datePtr(today)
	afterPay := Project(input(paid))
	assertMoney(t, "120", afterPay.PaidSoFar, "paid")
	assertMoney(t, "0", afterPay.UnpaidEssential, "unpaid")

	unpaid := paid
	unpaid.PaymentDate = nil
	assert.Equal(t, never, Project(input(unpaid)))
	assertMoney(t, "120", never.UnpaidEssential, "unpaid")
}

func TestProjectionService_Monthly(t *testing.T) {
	db, mock := setupMockDB(t)
	today := models.NewDate(2024, time.June, 10)
	svc := NewProjectionService(db, FixedClock(today), discretionary)
	paidDay := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "monthly_fixed_income"}).
			AddRow(1, "ana", "hash", "ana@example.com", "3000.00"))
	mock.ExpectQuery("SELECT .* FROM `despesas`").
		WithArgs(1, "2024-06-01", "2024-06-30", "2024-06-01", "2024-06-30").
		WillReturnRows(sqlmock.NewRows(expenseColumns).
			AddRow(1, 1, "Mercado", "300.00", paidDay, paidDay, "alimentacao", nil, false, true))
	mock.ExpectQuery("SELECT .* FROM `rendas_extras`").
		WithArgs(1, "2024-06-01", "2024-06-30").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "amount", "received_date"}).
			AddRow(1, 1, "Freela", "250.00", paidDay))

	user, r, err := svc.Monthly(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assertMoney(t, "900", r.TotalProjected, "total")
	assertMoney(t, "250", r.ExtraIncome, "extra")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectionService_Monthly_UserMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewProjectionService(db, FixedClock(models.NewDate(2024, time.June, 10)), discretionary)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := svc.Monthly(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
