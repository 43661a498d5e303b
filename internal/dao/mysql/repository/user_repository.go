package repository

import (
	"time"

	"social_connect_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID 按 ID 查找用户
func (r *userRepository) FindByID(id int64) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// Exists 判断用户是否存在
func (r *userRepository) Exists(id int64) (bool, error) {
	var count int64
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, wrapDBErrorf(err, "查询用户是否存在 id=%d", id)
	}
	return count > 0, nil
}

// UpdateOnlineStatus 更新在线标志和最近离线时间
// 上线时只翻转 is_online，下线时同时记录 last_seen
func (r *userRepository) UpdateOnlineStatus(id int64, online bool, lastSeen time.Time) error {
	updates := map[string]any{"is_online": online}
	if !online {
		updates["last_seen"] = lastSeen
	}
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return wrapDBErrorf(err, "更新在线状态 id=%d", id)
	}
	return nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}
