package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, time.UTC, d.Location())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDateOf_KeepsCalendarDay(t *testing.T) {
	// 圣保罗 23:30 在 UTC 已经是第二天，但日历日期应保持不变
	loc := time.FixedZone("BRT", -3*3600)
	d := DateOf(time.Date(2024, 1, 31, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-01-31", d.String())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Due  Date  `json:"due"`
		Paid *Date `json:"paid"`
	}

	b, err := json.Marshal(payload{Due: NewDate(2024, time.February, 29)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-02-29","paid":null}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-05-01","paid":"2024-05-03"}`), &p))
	assert.Equal(t, "2024-05-01", p.Due.String())
	require.NotNil(t, p.Paid)
	assert.Equal(t, "2024-05-03", p.Paid.String())

	assert.Error(t, json.Unmarshal([]byte(`{"due":"01-05-2024"}`), &p))
}

func TestDate_Scan(t *testing.T) {
	var d Date

	// 驱动返回带时区的时间，只保留日历部分
	require.NoError(t, d.Scan(time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-07-09", d.String())

	require.NoError(t, d.Scan([]byte("2024-07-10")))
	assert.Equal(t, "2024-07-10", d.String())

	require.NoError(t, d.Scan("2024-07-11 00:00:00"))
	assert.Equal(t, "2024-07-11", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := NewDate(2024, time.December, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDebt_PayableAmount(t *testing.T) {
	d := Debt{TotalAmount: decimal.RequireFromString("1000.00"), DiscountAmount: decimal.RequireFromString("250.50")}
	assert.True(t, decimal.RequireFromString("749.50").Equal(d.PayableAmount()))
}

func TestExpense_IsPaid(t *testing.T) {
	e := Expense{}
	assert.False(t, e.IsPaid())

	paid := NewDate(2024, time.January, 5)
	e.PaymentDate = &paid
	assert.True(t, e.IsPaid())

	e.PaymentDate = nil
	assert.False(t, e.IsPaid())
}
