package database

import (
	"net"
	"strconv"
	"time"

	"go-jewelry/pkg/config"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN 由驱动生成 MySQL 连接串，账号密码中的特殊字符无需手动转义
func DSN(cfg config.MysqlConfig) string {
	c := driver.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.DbName
	c.ParseTime = true
	c.Loc = time.Local
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// InitMySQL 初始化 MySQL 连接，开发环境打印 SQL
func InitMySQL(cfg config.MysqlConfig, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true, // 唯一键冲突转换为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}
