package models

// Category 支出类别（全局共享，不属于某个用户）
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Icon string `json:"icon" gorm:"size:50"`
}

func (Category) TableName() string {
	return "categorias"
}

// DefaultCategories 初始化时写入的默认类别
func DefaultCategories() []Category {
	return []Category{
		{Name: "moradia", Icon: "home"},
		{Name: "alimentacao", Icon: "restaurant"},
		{Name: "transporte", Icon: "directions_car"},
		{Name: "saude", Icon: "local_hospital"},
		{Name: "educacao", Icon: "school"},
		{Name: "contas", Icon: "receipt"},
		{Name: "lazer", Icon: "sports_esports"},
		{Name: "desejos", Icon: "shopping_bag"},
		{Name: "diversos", Icon: "more_horiz"},
		{Name: CategoryInstallment, Icon: "credit_card"},
	}
}
