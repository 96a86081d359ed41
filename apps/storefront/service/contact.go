package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/mailer"
	"go-jewelry/pkg/metrics"

	"go.uber.org/zap"
)

// ProductQuery 商品咨询
type ProductQuery struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Size        string `json:"size"`
	Message     string `json:"message"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProductURL  string `json:"productUrl"`
}

// CustomRequest 定制需求，Images 为 data URL
type CustomRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Inspiration     string   `json:"inspiration"`
	SpecialRequests string   `json:"specialRequests"`
	Images          []string `json:"images"`
}

// FranchiseInquiry 加盟咨询
type FranchiseInquiry struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	Investment string `json:"investment"`
	Experience string `json:"experience"`
	Message    string `json:"message"`
}

// Recipients 各类邮件的收件箱
type Recipients struct {
	Support   string
	Franchise string
	Custom    string
}

type ContactService struct {
	mail    mailer.Sender
	to      Recipients
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewContactService(mail mailer.Sender, to Recipients, m *metrics.Metrics, log *zap.Logger) *ContactService {
	return &ContactService{mail: mail, to: to, metrics: m, log: log}
}

// SendProductQuery 发给客服，并给客户发送确认邮件
func (s *ContactService) SendProductQuery(ctx context.Context, q ProductQuery) error {
	if blank(q.Email) || blank(q.ProductID) || blank(q.ProductName) {
		return errx.Validation("Missing required fields (email, productId, or productName)")
	}

	body, err := renderTemplate(productQueryTmpl, q)
	if err != nil {
		return err
	}
	if err := s.send(ctx, mailer.Message{
		To:      []string{s.to.Support},
		ReplyTo: q.Email,
		Subject: "Product Query: " + q.ProductName,
		HTML:    body,
	}); err != nil {
		return err
	}

	confirm, err := renderTemplate(queryConfirmTmpl, q)
	if err != nil {
		return err
	}
	return s.send(ctx, mailer.Message{
		To:      []string{q.Email},
		Subject: "We received your query for " + q.ProductName,
		HTML:    confirm,
	})
}

// SendCustomRequest 参考图片作为附件
func (s *ContactService) SendCustomRequest(ctx context.Context, r CustomRequest) error {
	if blank(r.Name) || blank(r.Email) || blank(r.Phone) {
		return errx.Validation("Please provide name, email, and phone number.")
	}

	attachments := make([]mailer.Attachment, 0, len(r.Images))
	for i, img := range r.Images {
		a, err := decodeDataURL(img, i+1)
		if err != nil {
			return err
		}
		attachments = append(attachments, a)
	}

	body, err := renderTemplate(customRequestTmpl, struct {
		CustomRequest
		ImageCount int
	}{r, len(attachments)})
	if err != nil {
		return err
	}
	return s.send(ctx, mailer.Message{
		To:          []string{s.to.Custom},
		ReplyTo:     r.Email,
		Subject:     "New Custom Jewelry Request",
		HTML:        body,
		Attachments: attachments,
	})
}

func (s *ContactService) SendFranchiseInquiry(ctx context.Context, f FranchiseInquiry) error {
	if blank(f.FullName) || blank(f.Email) || blank(f.Phone) {
		return errx.Validation("Please fill all required fields.")
	}
	body, err := renderTemplate(franchiseTmpl, f)
	if err != nil {
		return err
	}
	return s.send(ctx, mailer.Message{
		To:      []string{s.to.Franchise},
		ReplyTo: f.Email,
		Subject: "New Franchise Inquiry",
		HTML:    body,
	})
}

func (s *ContactService) send(ctx context.Context, msg mailer.Message) error {
	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.MailQueued.WithLabelValues("error").Inc()
		s.log.Error("queue email failed", zap.String("subject", msg.Subject), zap.Error(err))
		return errx.Wrap(errx.KindUnavailable, err, "email could not be sent, please try again later")
	}
	s.metrics.MailQueued.WithLabelValues("ok").Inc()
	return nil
}

// imageMIME 只接受 image/<subtype>，扩展名取 subtype 中 + 之前的部分
var imageMIME = regexp.MustCompile(`^image/([a-z0-9]+)(?:[.+-][a-z0-9]+)*$`)

// decodeDataURL 解析 data:<mime>;base64,<data>，没有 mime 时按 image/jpeg 处理
func decodeDataURL(raw string, n int) (mailer.Attachment, error) {
	contentType := "image/jpeg"
	data := raw
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		data = raw[i+len(";base64,"):]
		if strings.HasPrefix(raw, "data:") && i > len("data:") {
			contentType = strings.ToLower(strings.TrimSpace(raw[len("data:"):i]))
		}
	}
	m := imageMIME.FindStringSubmatch(contentType)
	if m == nil {
		return mailer.Attachment{}, errx.Validationf("image %d must be an image", n)
	}
	content, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return mailer.Attachment{}, errx.Validationf("image %d is not valid base64", n)
	}
	return mailer.Attachment{
		Filename:    fmt.Sprintf("reference-%d.%s", n, m[1]),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
