package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期格式（无时间部分）
const DateLayout = "2006-01-02"

// Date 日历日期，统一存储为 UTC 零点
// 数据库中为 date 类型，JSON 中为 "2006-01-02"，读取时不受客户端时区影响
type Date struct {
	time.Time
}

// NewDate 按年月日创建日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 取某个时刻在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 解析 "2006-01-02" 格式的日期
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("日期格式错误，应为: %s", DateLayout)
	}
	return Date{Time: t}, nil
}

// String 返回 "2006-01-02"
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Before 是否早于另一个日期
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After 是否晚于另一个日期
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// Equal 是否为同一天
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// MarshalJSON 输出 "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON 解析 "2006-01-02"，null 与空串视为零值
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan 实现 sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		// 驱动按 loc=UTC 读取 date 列，这里只取日历部分
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("无法将 %T 转换为 Date", value)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value 实现 driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// GormDataType 建表时使用 date 类型
func (Date) GormDataType() string {
	return "date"
}
