package service

import (
	"context"
	"fmt"

	"carteira/models"

	"gorm.io/gorm"
)

// AccountService 账号级别的多表操作
type AccountService struct {
	db *gorm.DB
}

// NewAccountService 创建账号服务
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// ownedTables 删除用户时需要清理的数据，先子后父
var ownedTables = []struct {
	name  string
	model interface{}
}{
	{"despesas", &models.Expense{}},
	{"compras_parceladas", &models.InstallmentGroup{}},
	{"dividas", &models.Debt{}},
	{"metas", &models.Goal{}},
	{"rendas_extras", &models.ExtraIncome{}},
}

// DeleteAccount 在一个事务内删除用户及其全部数据
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range ownedTables {
			if err := tx.Where("owner_id = ?", userID).Delete(t.model).Error; err != nil {
				return fmt.Errorf("删除 %s 失败: %w", t.name, err)
			}
		}
		res := tx.Where("id = ?", userID).Delete(&models.User{})
		if res.Error != nil {
			return fmt.Errorf("删除用户失败: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return StoreErr("删除账号", err)
}
