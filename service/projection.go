package service

import (
	"context"
	"errors"
	"strings"

	"carteira/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectionInput 月度预测的输入
type ProjectionInput struct {
	Today                   models.Date
	Expenses                []models.Expense
	ExtraIncomes            []models.ExtraIncome
	FixedIncome             decimal.Decimal
	DiscretionaryCategories []string
}

// ProjectionResult 月度预测结果
type ProjectionResult struct {
	Month                      string          `json:"month"`
	FixedIncome                decimal.Decimal `json:"fixed_income"`
	ExtraIncome                decimal.Decimal `json:"extra_income"`
	PaidSoFar                  decimal.Decimal `json:"paid_so_far"`
	UnpaidEssential            decimal.Decimal `json:"unpaid_essential"`
	DailyAverage               decimal.Decimal `json:"daily_average"`
	RemainingDays              int             `json:"remaining_days"`
	ProjectedRemainingVariable decimal.Decimal `json:"projected_remaining_variable"`
	TotalProjected             decimal.Decimal `json:"total_projected"`
	Balance                    decimal.Decimal `json:"balance"`
}

// categorySet 非必要类别集合，忽略大小写和首尾空格
type categorySet map[string]struct{}

func newCategorySet(names []string) categorySet {
	set := make(categorySet, len(names))
	for _, n := range names {
		set[normalizeCategory(n)] = struct{}{}
	}
	return set
}

func (s categorySet) has(name string) bool {
	_, ok := s[normalizeCategory(name)]
	return ok
}

func normalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// relevantThisMonth 本月已支付，或未支付且本月到期
func relevantThisMonth(e models.Expense, today models.Date) bool {
	if e.IsPaid() {
		return InMonth(*e.PaymentDate, today)
	}
	return InMonth(e.DueDate, today)
}

// Project 计算到月底预计的总支出
//
//	paidSoFar                  = 本月已支付合计
//	unpaidEssential            = 未支付且(固定 或 非“非必要类别”)的合计
//	paidVariableEssential      = 已支付且非固定且非“非必要类别”的合计
//	dailyAverage               = paidVariableEssential / 今天日号
//	projectedRemainingVariable = dailyAverage * 本月剩余天数
//	totalProjected             = paidSoFar + unpaidEssential + projectedRemainingVariable
func Project(in ProjectionInput) ProjectionResult {
	discretionary := newCategorySet(in.DiscretionaryCategories)

	paidSoFar := decimal.Zero
	unpaidEssential := decimal.Zero
	paidVariableEssential := decimal.Zero

	for _, e := range in.Expenses {
		if !relevantThisMonth(e, in.Today) {
			continue
		}
		essential := !discretionary.has(e.Category)
		if e.IsPaid() {
			paidSoFar = paidSoFar.Add(e.Amount)
			if !e.IsFixed && essential {
				paidVariableEssential = paidVariableEssential.Add(e.Amount)
			}
			continue
		}
		if e.IsFixed || essential {
			unpaidEssential = unpaidEssential.Add(e.Amount)
		}
	}

	extra := decimal.Zero
	for _, inc := range in.ExtraIncomes {
		if InMonth(inc.ReceivedDate, in.Today) {
			extra = extra.Add(inc.Amount)
		}
	}

	day := in.Today.Day()
	dailyAverage := decimal.Zero
	if day > 0 {
		dailyAverage = paidVariableEssential.Div(decimal.NewFromInt(int64(day)))
	}
	remainingDays := DaysInMonth(in.Today) - day
	projectedRemaining := dailyAverage.Mul(decimal.NewFromInt(int64(remainingDays)))
	total := paidSoFar.Add(unpaidEssential).Add(projectedRemaining)

	return ProjectionResult{
		Month:                      in.Today.Format("2006-01"),
		FixedIncome:                in.FixedIncome.Round(2),
		ExtraIncome:                extra.Round(2),
		PaidSoFar:                  paidSoFar.Round(2),
		UnpaidEssential:            unpaidEssential.Round(2),
		DailyAverage:               dailyAverage.Round(2),
		RemainingDays:              remainingDays,
		ProjectedRemainingVariable: projectedRemaining.Round(2),
		TotalProjected:             total.Round(2),
		Balance:                    in.FixedIncome.Add(extra).Sub(total).Round(2),
	}
}

// ProjectionService 从数据库读取本月数据并计算预测
type ProjectionService struct {
	db            *gorm.DB
	clock         Clock
	discretionary []string
}

// NewProjectionService 创建预测服务
func NewProjectionService(db *gorm.DB, clock Clock, discretionary []string) *ProjectionService {
	return &ProjectionService{db: db, clock: clock, discretionary: discretionary}
}

// Today 当前日期
func (s *ProjectionService) Today() models.Date {
	return s.clock()
}

// MonthData 本月预测所需的数据
type MonthData struct {
	User         models.User
	Expenses     []models.Expense
	ExtraIncomes []models.ExtraIncome
}

// LoadMonth 读取用户、本月相关支出和本月额外收入
func (s *ProjectionService) LoadMonth(ctx context.Context, ownerID uint, today models.Date) (*MonthData, error) {
	db := s.db.WithContext(ctx)
	first, last := MonthRange(today)

	var data MonthData
	if err := db.Where("id = ?", ownerID).First(&data.User).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, StoreErr("查询用户", err)
	}
	if err := db.Where("owner_id = ? AND ((payment_date >= ? AND payment_date <= ?) OR (payment_date IS NULL AND due_date >= ? AND due_date <= ?))",
		ownerID, first, last, first, last).
		Order("due_date ASC").
		Find(&data.Expenses).Error; err != nil {
		return nil, StoreErr("查询本月支出", err)
	}
	if err := db.Where("owner_id = ? AND received_date >= ? AND received_date <= ?", ownerID, first, last).
		Order("received_date ASC").
		Find(&data.ExtraIncomes).Error; err != nil {
		return nil, StoreErr("查询本月额外收入", err)
	}
	return &data, nil
}

// Monthly 计算当前用户本月的支出预测
func (s *ProjectionService) Monthly(ctx context.Context, ownerID uint) (*models.User, ProjectionResult, error) {
	today := s.clock()
	data, err := s.LoadMonth(ctx, ownerID, today)
	if err != nil {
		return nil, ProjectionResult{}, err
	}
	result := Project(ProjectionInput{
		Today:                   today,
		Expenses:                data.Expenses,
		ExtraIncomes:            data.ExtraIncomes,
		FixedIncome:             data.User.MonthlyFixedIncome,
		DiscretionaryCategories: s.discretionary,
	})
	return &data.User, result, nil
}
