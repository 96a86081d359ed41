// Package mailer 定义邮件消息和发送方式：storefront 把邮件投递到 RabbitMQ 队列，
// 独立的 mailer 进程消费队列并通过 SMTP 发送。
package mailer

import (
	"context"
	"errors"
	"io"
	"strings"

	"go-jewelry/pkg/config"

	"gopkg.in/gomail.v2"
)

// Attachment 邮件附件，Content 在 JSON 中以 base64 编码
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Message 一封待发送的邮件
type Message struct {
	To          []string     `json:"to"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate 收件人和主题必填
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New("mailer: message has no recipient")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return errors.New("mailer: empty recipient")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mailer: message has no subject")
	}
	return nil
}

// Sender 邮件发送接口，SMTP 和队列投递都实现它
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender 使用 gomail 直接发送
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender 根据配置创建 SMTP 发送器
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send 发送一封邮件，gomail 不支持 context，只在发送前检查是否已取消
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(buildMessage(s.from, msg))
}

func buildMessage(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}
	return m
}
