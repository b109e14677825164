package service

import (
	"time"

	"carteira/models"
)

// AddMonths 在日历月上加 n 个月，保留日号
// 日号溢出时顺延到下一个月：1月31日 + 1 个月 = 3月3日（闰年为3月2日）
func AddMonths(d models.Date, n int) models.Date {
	return models.Date{Time: d.Time.AddDate(0, n, 0)}
}

// DaysInMonth 返回日期所在月份的天数
func DaysInMonth(d models.Date) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange 返回日期所在月份的第一天和最后一天
func MonthRange(d models.Date) (first, last models.Date) {
	first = models.NewDate(d.Year(), d.Month(), 1)
	last = models.NewDate(d.Year(), d.Month(), DaysInMonth(d))
	return first, last
}

// InMonth 判断 d 是否与 ref 处于同一个日历月
func InMonth(d, ref models.Date) bool {
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}

// DaysBetween 返回 from 到 to 相差的天数（按日历日，向上取整）
func DaysBetween(from, to models.Date) int {
	hours := to.Time.Sub(from.Time).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	return days
}

// Clock 提供“今天”，便于测试时固定日期
type Clock func() models.Date

// SystemClock 返回指定时区下的今天
func SystemClock(loc *time.Location) Clock {
	return func() models.Date {
		return models.DateOf(time.Now().In(loc))
	}
}

// FixedClock 固定返回某一天
func FixedClock(d models.Date) Clock {
	return func() models.Date { return d }
}
