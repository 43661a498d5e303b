// Package model 定义数据库实体模型
// 本文件定义用户信息模型，账号注册/资料编辑由外部用户服务负责，
// 消息核心只读取展示字段并回写在线状态
package model

import (
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt" // 密码哈希库
	"gorm.io/gorm"
)

// User 用户模型
// 对应数据库 users 表
type User struct {
	// ID 用户唯一标识，自增整数
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// Username 用户名，全局唯一
	Username string `gorm:"column:username;uniqueIndex;type:varchar(50);not null;comment:用户名"`

	// Email 邮箱地址，全局唯一
	Email string `gorm:"column:email;uniqueIndex;type:varchar(100);not null;comment:邮箱"`

	// Password 密码（已哈希）
	// 存储 bcrypt 哈希后的密码，不存储明文
	Password string `gorm:"column:password;type:varchar(255);not null;comment:密码"`

	// FullName 显示名称
	FullName string `gorm:"column:full_name;type:varchar(100);not null;comment:显示名称"`

	// Bio 个人简介
	Bio string `gorm:"column:bio;type:TEXT;comment:个人简介"`

	// ProfilePicture 头像 URL
	ProfilePicture string `gorm:"column:profile_picture;type:varchar(255);comment:头像"`

	// IsOnline 在线标志
	// 由 Presence Registry 在首连/末断时回写
	IsOnline bool `gorm:"column:is_online;not null;default:false;comment:是否在线"`

	// LastSeen 最近离线时间
	LastSeen sql.NullTime `gorm:"column:last_seen;type:datetime;comment:最近离线时间"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	// RawPassword 明文密码（不存入数据库）
	// 用于接收外部服务传来的明文密码，在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// BeforeSave GORM Hook：在创建和更新前自动调用
// 将 RawPassword 明文密码加密后存入 Password 字段
func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	if u.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = ""
	}
	return nil
}

// CheckPassword 校验密码是否正确
func (u *User) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext))
	return err == nil
}
