package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"carteira/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentService 分期购买：创建、重命名、批量改值、删除
type InstallmentService struct {
	db *gorm.DB
}

// NewInstallmentService 创建分期服务
func NewInstallmentService(db *gorm.DB) *InstallmentService {
	return &InstallmentService{db: db}
}

// MaxInstallmentCount 单笔分期的最大期数（30 年按月）
const MaxInstallmentCount = 360

// CreateInstallmentInput 创建分期的输入
type CreateInstallmentInput struct {
	Name                 string
	TotalAmount          decimal.Decimal
	InstallmentCount     int
	PurchaseDate         models.Date
	FirstInstallmentDate models.Date
}

// Validate 校验输入
func (in CreateInstallmentInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Invalid("name", "名称不能为空")
	}
	if !in.TotalAmount.IsPositive() {
		return Invalid("total_amount", "总金额必须大于0")
	}
	if in.InstallmentCount < 1 {
		return Invalid("installment_count", "分期数必须大于0")
	}
	if in.InstallmentCount > MaxInstallmentCount {
		return Invalid("installment_count", fmt.Sprintf("分期数不能超过 %d", MaxInstallmentCount))
	}
	if in.PurchaseDate.IsZero() {
		return Invalid("purchase_date", "购买日期不能为空")
	}
	if in.FirstInstallmentDate.IsZero() {
		return Invalid("first_installment_date", "首期日期不能为空")
	}
	return nil
}

// InstallmentAmount 每期金额 = 总金额 / 期数，保留两位小数
// 不把舍入差额分摊到最后一期
func InstallmentAmount(total decimal.Decimal, count int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(count)), 2)
}

// InstallmentName 生成子支出名称，如 "Geladeira (3/10)"
func InstallmentName(base string, index, total int) string {
	return fmt.Sprintf("%s (%d/%d)", base, index, total)
}

// installmentSuffix 取出名称中第一个 " (" 开始的后缀，没有则为空
func installmentSuffix(name string) string {
	if i := strings.Index(name, " ("); i >= 0 {
		return name[i:]
	}
	return ""
}

// BuildInstallments 按期数生成子支出（未持久化）
// 第 i 期的到期日为首期日期加 i 个日历月，期数超出 [1, MaxInstallmentCount] 时返回 nil
func BuildInstallments(ownerID, groupID uint, in CreateInstallmentInput) []models.Expense {
	if in.InstallmentCount < 1 || in.InstallmentCount > MaxInstallmentCount {
		return nil
	}
	amount := InstallmentAmount(in.TotalAmount, in.InstallmentCount)
	name := strings.TrimSpace(in.Name)
	gid := groupID

	list := make([]models.Expense, 0, in.InstallmentCount)
	for i := 0; i < in.InstallmentCount; i++ {
		list = append(list, models.Expense{
			OwnerID:            ownerID,
			Name:               InstallmentName(name, i+1, in.InstallmentCount),
			Amount:             amount,
			DueDate:            AddMonths(in.FirstInstallmentDate, i),
			Category:           models.CategoryInstallment,
			InstallmentGroupID: &gid,
			IsFixed:            false,
			IsEssential:        true,
		})
	}
	return list
}

// Create 在一个事务内写入分期主记录和全部子支出，任何一步失败都整体回滚
func (s *InstallmentService) Create(ctx context.Context, ownerID uint, in CreateInstallmentInput) (*models.InstallmentGroup, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	group := models.InstallmentGroup{
		OwnerID:          ownerID,
		Name:             strings.TrimSpace(in.Name),
		TotalAmount:      in.TotalAmount,
		InstallmentCount: in.InstallmentCount,
		PurchaseDate:     in.PurchaseDate,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return fmt.Errorf("创建分期失败: %w", err)
		}
		group.Installments = BuildInstallments(ownerID, group.ID, in)
		for i := range group.Installments {
			if err := tx.Create(&group.Installments[i]).Error; err != nil {
				return fmt.Errorf("创建第 %d 期失败: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, StoreErr("创建分期", err)
	}
	return &group, nil
}

// findGroup 按 id 和 owner_id 查找分期，不存在或不属于当前用户时返回 ErrNotFound
func findGroup(tx *gorm.DB, ownerID, groupID uint) (*models.InstallmentGroup, error) {
	var group models.InstallmentGroup
	if err := tx.Where("id = ? AND owner_id = ?", groupID, ownerID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// findChildren 按到期日升序取出分期的子支出
func findChildren(tx *gorm.DB, ownerID, groupID uint) ([]models.Expense, error) {
	var list []models.Expense
	err := tx.Where("installment_group_id = ? AND owner_id = ?", groupID, ownerID).
		Order("due_date ASC").
		Find(&list).Error
	return list, err
}

// Get 获取分期及其子支出
func (s *InstallmentService) Get(ctx context.Context, ownerID, groupID uint) (*models.InstallmentGroup, error) {
	db := s.db.WithContext(ctx)
	group, err := findGroup(db, ownerID, groupID)
	if err != nil {
		return nil, StoreErr("查询分期", err)
	}
	children, err := findChildren(db, ownerID, groupID)
	if err != nil {
		return nil, StoreErr("查询分期明细", err)
	}
	group.Installments = children
	return group, nil
}

// InstallmentSummary 分期列表项
type InstallmentSummary struct {
	models.InstallmentGroup
	PaidCount int64 `json:"paid_count"`
}

// List 获取当前用户的全部分期，附带已支付期数
func (s *InstallmentService) List(ctx context.Context, ownerID uint) ([]InstallmentSummary, error) {
	db := s.db.WithContext(ctx)

	var groups []models.InstallmentGroup
	if err := db.Where("owner_id = ?", ownerID).Order("purchase_date DESC, id DESC").Find(&groups).Error; err != nil {
		return nil, StoreErr("查询分期列表", err)
	}

	type paidRow struct {
		InstallmentGroupID uint
		Paid               int64
	}
	var rows []paidRow
	if err := db.Model(&models.Expense{}).
		Select("installment_group_id, COUNT(*) AS paid").
		Where("owner_id = ? AND installment_group_id IS NOT NULL AND payment_date IS NOT NULL", ownerID).
		Group("installment_group_id").
		Scan(&rows).Error; err != nil {
		return nil, StoreErr("统计已支付期数", err)
	}
	paid := make(map[uint]int64, len(rows))
	for _, r := range rows {
		paid[r.InstallmentGroupID] = r.Paid
	}

	list := make([]InstallmentSummary, 0, len(groups))
	for _, g := range groups {
		list = append(list, InstallmentSummary{InstallmentGroup: g, PaidCount: paid[g.ID]})
	}
	return list, nil
}

// UpdateInstallmentInput 重命名/修改类别的输入
type UpdateInstallmentInput struct {
	Name     string
	Category string
}

// Update 重命名分期并修改全部子支出的类别
// 子支出名称保留原有的 " (i/n)" 后缀，整个过程在一个事务内完成
func (s *InstallmentService) Update(ctx context.Context, ownerID, groupID uint, in UpdateInstallmentInput) (*models.InstallmentGroup, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" {
		return nil, Invalid("name", "名称不能为空")
	}
	if category == "" {
		return nil, Invalid("category", "类别不能为空")
	}

	var result *models.InstallmentGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := findGroup(tx, ownerID, groupID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.InstallmentGroup{}).
			Where("id = ? AND owner_id = ?", groupID, ownerID).
			Update("name", name).Error; err != nil {
			return fmt.Errorf("更新分期名称失败: %w", err)
		}
		group.Name = name

		children, err := findChildren(tx, ownerID, groupID)
		if err != nil {
			return err
		}
		for i := range children {
			newName := name + installmentSuffix(children[i].Name)
			if err := tx.Model(&models.Expense{}).
				Where("id = ? AND owner_id = ?", children[i].ID, ownerID).
				Updates(map[string]interface{}{"name": newName, "category": category}).Error; err != nil {
				return fmt.Errorf("更新子支出 %d 失败: %w", children[i].ID, err)
			}
			children[i].Name = newName
			children[i].Category = category
		}
		group.Installments = children
		result = group
		return nil
	})
	if err != nil {
		return nil, StoreErr("更新分期", err)
	}
	return result, nil
}

// ReplicateInput 批量改值的输入
type ReplicateInput struct {
	Name  string
	Value decimal.Decimal
}

// OrderByDueDate 按到期日升序排序，同一天的顺序不作保证
func OrderByDueDate(list []models.Expense) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].DueDate.Before(list[j].DueDate)
	})
}

// Replicate 按到期日重新编号并把每期金额统一改为 Value
// 每期是一次独立更新，失败时报告出错的期数，之前已完成的更新保留
func (s *InstallmentService) Replicate(ctx context.Context, ownerID, groupID uint, in ReplicateInput) (*models.InstallmentGroup, error) {
	base := strings.TrimSpace(in.Name)
	if base == "" {
		return nil, Invalid("name", "名称不能为空")
	}
	if !in.Value.IsPositive() {
		return nil, Invalid("value", "每期金额必须大于0")
	}

	db := s.db.WithContext(ctx)
	group, err := findGroup(db, ownerID, groupID)
	if err != nil {
		return nil, StoreErr("查询分期", err)
	}
	children, err := findChildren(db, ownerID, groupID)
	if err != nil {
		return nil, StoreErr("查询分期明细", err)
	}
	OrderByDueDate(children)

	total := len(children)
	for i := range children {
		name := InstallmentName(base, i+1, total)
		if err := db.Model(&models.Expense{}).
			Where("id = ? AND owner_id = ?", children[i].ID, ownerID).
			Updates(map[string]interface{}{"name": name, "amount": in.Value}).Error; err != nil {
			return nil, StoreErr(fmt.Sprintf("更新第 %d/%d 期", i+1, total), err)
		}
		children[i].Name = name
		children[i].Amount = in.Value
	}

	newTotal := in.Value.Mul(decimal.NewFromInt(int64(total)))
	if err := db.Model(&models.InstallmentGroup{}).
		Where("id = ? AND owner_id = ?", groupID, ownerID).
		Updates(map[string]interface{}{"name": base, "total_amount": newTotal}).Error; err != nil {
		return nil, StoreErr("更新分期汇总", err)
	}
	group.Name = base
	group.TotalAmount = newTotal
	group.Installments = children
	return group, nil
}

// Delete 在一个事务内删除分期及其全部子支出
// 分期不存在或不属于当前用户时不删除任何数据并返回 ErrNotFound
func (s *InstallmentService) Delete(ctx context.Context, ownerID, groupID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findGroup(tx, ownerID, groupID); err != nil {
			return err
		}
		if err := tx.Where("installment_group_id = ? AND owner_id = ?", groupID, ownerID).
			Delete(&models.Expense{}).Error; err != nil {
			return fmt.Errorf("删除子支出失败: %w", err)
		}
		if err := tx.Where("id = ? AND owner_id = ?", groupID, ownerID).
			Delete(&models.InstallmentGroup{}).Error; err != nil {
			return fmt.Errorf("删除分期失败: %w", err)
		}
		return nil
	})
	return StoreErr("删除分期", err)
}
