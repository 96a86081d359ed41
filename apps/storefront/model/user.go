package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model                     // 包含了 ID, CreatedAt, UpdatedAt, DeletedAt
	UID                 string     `gorm:"column:uid;type:varchar(16);uniqueIndex" json:"uId"`
	Name                string     `gorm:"type:varchar(100);not null" json:"name"`
	Email               string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"email"`
	PhoneNumber         string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"phoneNumber"`
	Password            string     `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin             bool       `gorm:"default:false" json:"isAdmin"`
	ResetPasswordToken  string     `gorm:"type:varchar(64);index" json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// NextUID 在上一个编号基础上递增，BOF001、BOF002 ...
func NextUID(last string) string {
	digits := strings.TrimLeftFunc(last, func(r rune) bool { return r < '0' || r > '9' })
	n, _ := strconv.Atoi(digits)
	return fmt.Sprintf("BOF%03d", n+1)
}
