package service

import (
	"fmt"
	"html"
	"strings"

	"carteira/config"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 邮件服务是否启用
func (s *EmailService) Enabled() bool {
	return s.cfg.Enabled
}

// SendMonthlyReport 发送本月支出预测报告
func (s *EmailService) SendMonthlyReport(toEmail, username string, r ProjectionResult) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 CARTEIRA_EMAIL_ENABLED=true")
	}
	if strings.TrimSpace(toEmail) == "" {
		return Invalid("email", "未设置接收邮箱")
	}

	subject := fmt.Sprintf("【Carteira】%s 月度支出预测", r.Month)
	body := s.generateMonthlyReportBody(username, r)

	return s.sendEmail(toEmail, subject, body)
}

// generateMonthlyReportBody 生成月度报告邮件内容，用户输入的文本经过 HTML 转义
func (s *EmailService) generateMonthlyReportBody(username string, r ProjectionResult) string {
	balanceColor := "#10b981"
	if r.Balance.IsNegative() {
		balanceColor = "#ef4444"
	}

	rows := []struct {
		label string
		value string
	}{
		{"固定收入", r.FixedIncome.StringFixed(2)},
		{"额外收入", r.ExtraIncome.StringFixed(2)},
		{"已支付", r.PaidSoFar.StringFixed(2)},
		{"未支付必要支出", r.UnpaidEssential.StringFixed(2)},
		{"日均可变支出", r.DailyAverage.StringFixed(2)},
		{fmt.Sprintf("剩余 %d 天预计支出", r.RemainingDays), r.ProjectedRemainingVariable.StringFixed(2)},
	}
	var table strings.Builder
	for _, row := range rows {
		table.WriteString(fmt.Sprintf("<tr><td>%s</td><td class=\"num\">%s</td></tr>\n", html.EscapeString(row.label), html.EscapeString(row.value)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 30px; }
        table { width: 100%%; border-collapse: collapse; }
        td { padding: 10px 0; border-bottom: 1px solid #eee; color: #333; }
        .num { text-align: right; font-weight: 600; }
        .total { font-size: 20px; margin-top: 20px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 Carteira · %s</h1>
        </div>
        <div class="content">
            <p>%s，您好！以下是本月到月底的支出预测：</p>
            <table>
%s            </table>
            <p class="total">预计总支出：<strong>%s</strong></p>
            <p class="total">预计结余：<strong style="color: %s">%s</strong></p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(r.Month), html.EscapeString(username), table.String(), r.TotalProjected.StringFixed(2), balanceColor, r.Balance.StringFixed(2))
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
