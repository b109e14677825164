package service

import (
	"context"
	"errors"
	"fmt"

	"carteira/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AverageMonthDays 平均每月天数，用于把剩余天数换算为月数
var AverageMonthDays = decimal.RequireFromString("30.44")

// 计划状态
const (
	PayoffOnTrack  = "on_track"  // 截止日期在未来
	PayoffDueToday = "due_today" // 截止日期就是今天：剩余0天，需一次性存够，但尚未过期
	PayoffExpired  = "expired"   // 截止日期已过
)

// PayoffInput 还款/储蓄计划的输入
type PayoffInput struct {
	Today    models.Date
	Deadline models.Date
	Target   decimal.Decimal
	Discount decimal.Decimal // 仅债务使用，目标为0
}

// PayoffPlan 还款/储蓄计划
type PayoffPlan struct {
	NetAmount            decimal.Decimal  `json:"net_amount"`
	DiffDays             int              `json:"diff_days"`
	RemainingDays        int              `json:"remaining_days"`
	RemainingMonths      decimal.Decimal  `json:"remaining_months"`
	DailySavingsNeeded   decimal.Decimal  `json:"daily_savings_needed"`
	MonthlySavingsNeeded decimal.Decimal  `json:"monthly_savings_needed"`
	Status               string           `json:"status"`
	MonthlyLeftover      *decimal.Decimal `json:"monthly_leftover,omitempty"`
	MonthsToPayoff       *decimal.Decimal `json:"months_to_payoff,omitempty"`
}

// CalculatePayoff 计算到截止日期为止每天/每月需要存下的金额
// 剩余天数为0（今天截止）或已过期时，每天和每月金额都等于全部应付金额
func CalculatePayoff(in PayoffInput) PayoffPlan {
	net := in.Target.Sub(in.Discount)
	diff := DaysBetween(in.Today, in.Deadline)
	remaining := diff
	if remaining < 0 {
		remaining = 0
	}
	months := decimal.NewFromInt(int64(remaining)).Div(AverageMonthDays)

	plan := PayoffPlan{
		NetAmount:       net.Round(2),
		DiffDays:        diff,
		RemainingDays:   remaining,
		RemainingMonths: months.Round(2),
	}

	if remaining > 0 {
		plan.DailySavingsNeeded = net.Div(decimal.NewFromInt(int64(remaining))).Round(2)
		plan.MonthlySavingsNeeded = net.Div(months).Round(2)
	} else {
		plan.DailySavingsNeeded = net.Round(2)
		plan.MonthlySavingsNeeded = net.Round(2)
	}

	switch {
	case diff < 0:
		plan.Status = PayoffExpired
	case diff == 0:
		plan.Status = PayoffDueToday
	default:
		plan.Status = PayoffOnTrack
	}
	return plan
}

// MonthlyLeftover 每月结余 = 固定收入 - 本月到期且未支付的支出合计
func MonthlyLeftover(fixedIncome decimal.Decimal, expenses []models.Expense, today models.Date) decimal.Decimal {
	due := decimal.Zero
	for _, e := range expenses {
		if !e.IsPaid() && InMonth(e.DueDate, today) {
			due = due.Add(e.Amount)
		}
	}
	return fixedIncome.Sub(due)
}

// WithLeftover 附加债务的预计还清月数，结余不大于0时不显示
func (p PayoffPlan) WithLeftover(leftover decimal.Decimal) PayoffPlan {
	l := leftover.Round(2)
	p.MonthlyLeftover = &l
	p.MonthsToPayoff = nil
	if leftover.IsPositive() {
		m := p.NetAmount.Div(leftover).Round(2)
		p.MonthsToPayoff = &m
	}
	return p
}

// ValidateDebtAmounts 抵扣金额不能为负，也不能大于总金额
func ValidateDebtAmounts(total, discount decimal.Decimal) error {
	if !total.IsPositive() {
		return Invalid("total_amount", "总金额必须大于0")
	}
	if discount.IsNegative() {
		return Invalid("discount_amount", "抵扣金额不能为负数")
	}
	if discount.GreaterThan(total) {
		return fmt.Errorf("%w: 抵扣金额不能大于总金额", ErrConflict)
	}
	return nil
}

// DebtPlan 债务及其还款计划
type DebtPlan struct {
	Debt     models.Debt     `json:"debt"`
	Progress decimal.Decimal `json:"progress"` // 已抵扣百分比
	Plan     PayoffPlan      `json:"plan"`
}

// GoalPlan 目标及其储蓄计划
type GoalPlan struct {
	Goal models.Goal `json:"goal"`
	Plan PayoffPlan  `json:"plan"`
}

// HomeSummary 首页展示的债务与目标
type HomeSummary struct {
	Today models.Date `json:"today"`
	Debts []DebtPlan  `json:"debts"`
	Goals []GoalPlan  `json:"goals"`
}

// PayoffService 读取债务/目标并计算计划
type PayoffService struct {
	db         *gorm.DB
	projection *ProjectionService
}

// NewPayoffService 创建计划服务
func NewPayoffService(db *gorm.DB, projection *ProjectionService) *PayoffService {
	return &PayoffService{db: db, projection: projection}
}

// DebtProgress 已抵扣金额占总金额的百分比
func DebtProgress(d models.Debt) decimal.Decimal {
	if !d.TotalAmount.IsPositive() {
		return decimal.Zero
	}
	return d.DiscountAmount.Div(d.TotalAmount).Mul(decimal.NewFromInt(100)).Round(2)
}

func (s *PayoffService) debtPlan(d models.Debt, today models.Date, leftover decimal.Decimal) DebtPlan {
	plan := CalculatePayoff(PayoffInput{
		Today:    today,
		Deadline: d.Deadline,
		Target:   d.TotalAmount,
		Discount: d.DiscountAmount,
	}).WithLeftover(leftover)
	return DebtPlan{Debt: d, Progress: DebtProgress(d), Plan: plan}
}

func goalPlan(g models.Goal, today models.Date) GoalPlan {
	return GoalPlan{Goal: g, Plan: CalculatePayoff(PayoffInput{
		Today:    today,
		Deadline: g.Deadline,
		Target:   g.TargetAmount,
		Discount: decimal.Zero,
	})}
}

func (s *PayoffService) leftover(ctx context.Context, ownerID uint, today models.Date) (decimal.Decimal, error) {
	data, err := s.projection.LoadMonth(ctx, ownerID, today)
	if err != nil {
		return decimal.Zero, err
	}
	return MonthlyLeftover(data.User.MonthlyFixedIncome, data.Expenses, today), nil
}

// ForDebt 计算某笔债务的还款计划
func (s *PayoffService) ForDebt(ctx context.Context, ownerID, debtID uint) (*DebtPlan, error) {
	var debt models.Debt
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", debtID, ownerID).First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, StoreErr("查询债务", err)
	}
	today := s.projection.Today()
	leftover, err := s.leftover(ctx, ownerID, today)
	if err != nil {
		return nil, err
	}
	plan := s.debtPlan(debt, today, leftover)
	return &plan, nil
}

// ForGoal 计算某个目标的储蓄计划
func (s *PayoffService) ForGoal(ctx context.Context, ownerID, goalID uint) (*GoalPlan, error) {
	var goal models.Goal
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", goalID, ownerID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, StoreErr("查询目标", err)
	}
	plan := goalPlan(goal, s.projection.Today())
	return &plan, nil
}

// Home 首页：show_on_home 为真的债务和目标及其计划
func (s *PayoffService) Home(ctx context.Context, ownerID uint) (*HomeSummary, error) {
	db := s.db.WithContext(ctx)
	today := s.projection.Today()

	var debts []models.Debt
	if err := db.Where("owner_id = ? AND show_on_home = ?", ownerID, true).Order("deadline ASC").Find(&debts).Error; err != nil {
		return nil, StoreErr("查询首页债务", err)
	}
	var goals []models.Goal
	if err := db.Where("owner_id = ? AND show_on_home = ?", ownerID, true).Order("deadline ASC").Find(&goals).Error; err != nil {
		return nil, StoreErr("查询首页目标", err)
	}

	summary := &HomeSummary{Today: today, Debts: []DebtPlan{}, Goals: []GoalPlan{}}
	if len(debts) > 0 {
		leftover, err := s.leftover(ctx, ownerID, today)
		if err != nil {
			return nil, err
		}
		for _, d := range debts {
			summary.Debts = append(summary.Debts, s.debtPlan(d, today, leftover))
		}
	}
	for _, g := range goals {
		summary.Goals = append(summary.Goals, goalPlan(g, today))
	}
	return summary, nil
}
