// Package sender 邮件发送器实现
package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/wyfcoding/mentormarket/internal/notification/domain"
	"github.com/wyfcoding/mentormarket/pkg/logger"
)

// SMTPSender 标准 SMTP 发送器
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(host string, port int, username, password, from string) domain.Sender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send 发送邮件
func (s *SMTPSender) Send(ctx context.Context, target string, subject string, content string) error {
	logger.Info(ctx, "sending email", "target", target, "subject", subject)

	msg := []byte("From: " + s.from + "\r\n" +
		"To: " + target + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		content + "\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	return smtp.SendMail(addr, auth, s.from, []string{target}, msg)
}
