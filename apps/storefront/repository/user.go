package repository

import (
	"context"
	"errors"
	"time"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/errx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errx.NotFound(msg)
	}
	return err
}

// uidAttempts 并发注册抢到同一个 uId 时的最大尝试次数
const uidAttempts = 3

// Create 分配下一个 uId 后写入，邮箱或手机号重复返回 Conflict
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return createWithUID(uidAttempts,
		func() error {
			return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var last model.User
				if err := lastUIDQuery(tx).Find(&last).Error; err != nil {
					return err
				}
				u.UID = model.NextUID(last.UID)
				return tx.Create(u).Error
			})
		},
		func() (bool, error) {
			var n int64
			err := r.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where("uid = ?", u.UID).Count(&n).Error
			return n > 0, err
		})
}

// lastUIDQuery 读取最后一个 uId 并加行锁
func lastUIDQuery(tx *gorm.DB) *gorm.DB {
	return tx.Unscoped().Model(&model.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("uid").Where("uid <> ''").Order("id DESC").Limit(1)
}

// createWithUID 唯一键冲突时区分 uId 冲突（重新分配）与邮箱 / 手机号冲突
func createWithUID(attempts int, insert func() error, uidTaken func() (bool, error)) error {
	for i := 1; ; i++ {
		err := insert()
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		taken, cerr := uidTaken()
		if cerr != nil {
			return cerr
		}
		if !taken {
			return errx.Conflict("user already exists")
		}
		if i >= attempts {
			return errx.Unavailable("could not allocate user id, please retry")
		}
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &u, nil
}

// ExistsByEmailOrPhone 注册前的重复检查
func (r *UserRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR phone_number = ?", email, phone).
		Count(&n).Error
	return n > 0, err
}

// FindByResetToken 按 token 哈希查找且未过期
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", tokenHash, now).
		First(&u).Error
	if err != nil {
		return nil, notFound(err, "invalid or expired token")
	}
	return &u, nil
}

// SetResetToken 写入或清除（tokenHash 为空）重置密码 token
func (r *UserRepository) SetResetToken(ctx context.Context, userID uint, tokenHash string, expire *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expire,
	}).Error
}

// UpdatePassword 更新密码并清除重置 token
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password":              hash,
		"reset_password_token":  "",
		"reset_password_expire": nil,
	}).Error
}
