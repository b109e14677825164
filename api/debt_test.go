package api

import (
	"testing"
	"time"

	"carteira/models"
	"carteira/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var debtColumns = []string{"id", "owner_id", "name", "total_amount", "discount_amount", "deadline", "show_on_home"}

func newPlanRouter(t *testing.T, today models.Date) (*gin.Engine, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	cfg := testConfig()
	projection := service.NewProjectionService(db, service.FixedClock(today), cfg.Projection.DiscretionaryCategories)
	payoff := service.NewPayoffService(db, projection)

	debts := NewDebtHandler(cfg, db, payoff)
	goals := NewGoalHandler(cfg, db, payoff)
	incomes := NewExtraIncomeHandler(cfg, db)

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/debts", debts.Create)
	router.PUT("/debts/:id", debts.Update)
	router.GET("/debts/:id/payoff", debts.Payoff)
	router.POST("/goals", goals.Create)
	router.GET("/goals/:id/payoff", goals.Payoff)
	router.POST("/extra-incomes", incomes.Create)
	router.GET("/extra-incomes", incomes.List)
	return router, mock
}

func TestDebtHandler_Create(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `dividas`").WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	w := doJSON(router, "POST", "/debts", `{"name":"Cartao","total_amount":"1200","discount_amount":"200","deadline":"2024-07-01","show_on_home":true}`)

	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["id"])
	assert.Equal(t, "2024-07-01", data["deadline"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtHandler_Create_DiscountOverTotal(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	w := doJSON(router, "POST", "/debts", `{"name":"Cartao","total_amount":"100","discount_amount":"150","deadline":"2024-07-01"}`)

	assert.Equal(t, 409, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "抵扣金额不能大于总金额")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtHandler_Create_InvalidDeadline(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	w := doJSON(router, "POST", "/debts", `{"name":"Cartao","total_amount":"100","deadline":"31/12/2024"}`)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "deadline")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtHandler_Update_MergedDiscountOverTotal(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))
	deadline := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM `dividas`").
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows(debtColumns).AddRow(3, 1, "Cartao", "1000.00", "200.00", deadline, false))

	// 只修改抵扣金额，合并后 1500 > 1000
	w := doJSON(router, "PUT", "/debts/3", `{"discount_amount":"1500"}`)

	assert.Equal(t, 409, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtHandler_Update(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))
	deadline := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM `dividas`").
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows(debtColumns).AddRow(3, 1, "Cartao", "1000.00", "200.00", deadline, false))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `dividas` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(router, "PUT", "/debts/3", `{"discount_amount":"400","show_on_home":true}`)

	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "400", data["discount_amount"])
	assert.Equal(t, "1000", data["total_amount"])
	assert.Equal(t, true, data["show_on_home"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtHandler_Payoff_NotFound(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	mock.ExpectQuery("SELECT .* FROM `dividas`").
		WithArgs(8, 1).
		WillReturnRows(sqlmock.NewRows(debtColumns))

	w := doJSON(router, "GET", "/debts/8/payoff", "")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "记录不存在", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalHandler_Payoff(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	mock.ExpectQuery("SELECT .* FROM `metas`").
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "target_amount", "deadline", "show_on_home"}).
			AddRow(2, 1, "Viagem", "1000.00", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true))

	w := doJSON(router, "GET", "/goals/2/payoff", "")

	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	plan := data["plan"].(map[string]interface{})
	assert.Equal(t, float64(30), plan["remaining_days"])
	assert.Equal(t, "33.33", plan["daily_savings_needed"])
	assert.Equal(t, service.PayoffOnTrack, plan["status"])
	assert.NotContains(t, plan, "months_to_payoff")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalHandler_Create_NonPositiveTarget(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	w := doJSON(router, "POST", "/goals", `{"name":"Viagem","target_amount":"0","deadline":"2024-12-01"}`)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "target_amount")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraIncomeHandler_Create(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `rendas_extras`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	w := doJSON(router, "POST", "/extra-incomes", `{"name":" Freela ","amount":"800","received_date":"2024-06-12"}`)

	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Freela", data["name"])
	assert.Equal(t, "800", data["amount"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtraIncomeHandler_List_MonthFilter(t *testing.T) {
	router, mock := newPlanRouter(t, models.NewDate(2024, time.June, 1))

	mock.ExpectQuery("SELECT .* FROM `rendas_extras`").
		WithArgs(1, "2024-02-01", "2024-02-29").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "amount", "received_date"}).
			AddRow(1, 1, "Freela", "250.00", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))

	w := doJSON(router, "GET", "/extra-incomes?month=2024-02", "")
	require.Equal(t, 200, w.Code)
	assert.Len(t, decodeResponse(t, w)["data"], 1)

	w = doJSON(router, "GET", "/extra-incomes?month=fev", "")
	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
