package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/mailer"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = 15 * time.Minute
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// RegisterInput 注册参数
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

// Session 登录 / 注册成功后返回
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AccountService struct {
	users       UserStore
	carts       *CartService
	tokens      TokenIssuer
	mail        mailer.Sender
	frontendURL string
	log         *zap.Logger
	now         func() time.Time
}

func NewAccountService(users UserStore, carts *CartService, tokens TokenIssuer, mail mailer.Sender, frontendURL string, log *zap.Logger) *AccountService {
	return &AccountService{
		users:       users,
		carts:       carts,
		tokens:      tokens,
		mail:        mail,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

// Register 创建用户并直接登录
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	switch {
	case len(in.Name) < 2:
		return nil, errx.Validation("name must be at least 2 characters")
	case !emailPattern.MatchString(in.Email):
		return nil, errx.Validation("invalid email")
	case !phonePattern.MatchString(in.PhoneNumber):
		return nil, errx.Validation("invalid phone number")
	case len(in.Password) < minPasswordLen:
		return nil, errx.Validationf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := s.users.ExistsByEmailOrPhone(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errx.Conflict("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Password:    string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("uid", u.UID))
	return s.session(u)
}

// Login 校验密码，guestID 不为空时合并游客购物车
func (s *AccountService) Login(ctx context.Context, email, password, guestID string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errx.Validation("email and password are required")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errx.Is(err, errx.KindNotFound) {
			return nil, errx.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errx.Unauthorized("invalid email or password")
	}

	if guestID != "" && s.carts != nil {
		// 合并失败不影响登录
		if err := s.carts.MergeGuestIntoUser(ctx, guestID, u.ID); err != nil {
			s.log.Warn("merge guest cart failed",
				zap.Uint("user_id", u.ID),
				zap.String("guest_id", guestID),
				zap.Error(err))
		}
	}
	return s.session(u)
}

// Profile 当前登录用户信息
func (s *AccountService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

// ForgotPassword 生成重置 token 并发送邮件，数据库只保存 token 的哈希
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errx.Validation("email is required")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errx.Is(err, errx.KindNotFound) {
			return errx.NotFound("Email does not exist")
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	expire := s.now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, u.ID, hashToken(token), &expire); err != nil {
		return err
	}

	html, err := renderTemplate(resetPasswordTmpl, map[string]string{
		"Name": u.Name,
		"Link": s.frontendURL + "/reset-password/" + token,
	})
	if err != nil {
		return err
	}
	err = s.mail.Send(ctx, mailer.Message{
		To:      []string{u.Email},
		Subject: "Password Reset Request",
		HTML:    html,
	})
	if err != nil {
		s.log.Error("send reset password email failed", zap.Uint("user_id", u.ID), zap.Error(err))
		if clearErr := s.users.SetResetToken(ctx, u.ID, "", nil); clearErr != nil {
			s.log.Error("clear reset token failed", zap.Uint("user_id", u.ID), zap.Error(clearErr))
		}
		return errx.Wrap(errx.KindUnavailable, err, "email could not be sent")
	}
	return nil
}

// ResetPassword 校验 token 后更新密码
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return errx.Validation("password is required")
	}
	if len(password) < minPasswordLen {
		return errx.Validationf("password must be at least %d characters", minPasswordLen)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errx.Validation("invalid or expired token")
	}

	u, err := s.users.FindByResetToken(ctx, hashToken(token), s.now())
	if err != nil {
		if errx.Is(err, errx.KindNotFound) {
			return errx.Validation("invalid or expired token")
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}
	s.log.Info("password reset", zap.Uint("user_id", u.ID))
	return nil
}

func (s *AccountService) session(u *model.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
