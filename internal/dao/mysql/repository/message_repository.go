package repository

import (
	"social_connect_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByID 按 ID 查找消息
func (r *messageRepository) FindByID(id int64) (*model.Message, error) {
	var message model.Message
	if err := r.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 id=%d", id)
	}
	return &message, nil
}

// FindConversation 查找两个用户之间的消息（双向），按时间倒序分页
// 倒序取页保证 offset 从最新一条开始数，Service 层负责反转成显示顺序
func (r *messageRepository) FindConversation(userID, peerID int64, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话消息 user=%d peer=%d", userID, peerID)
	}
	return messages, nil
}

// MarkReadByIDs 将指定消息集合中 sender->receiver 方向的未读消息置为已读
// 已读标志只会单向翻转，重复调用影响行数为 0
func (r *messageRepository) MarkReadByIDs(ids []int64, senderID, receiverID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Model(&model.Message{}).
		Where("id IN ?", ids).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "批量置已读 sender=%d receiver=%d", senderID, receiverID)
	}
	return res.RowsAffected, nil
}

// MarkConversationRead 将 sender->receiver 的全部未读消息置为已读
func (r *messageRepository) MarkConversationRead(senderID, receiverID int64) (int64, error) {
	res := r.db.Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "会话置已读 sender=%d receiver=%d", senderID, receiverID)
	}
	return res.RowsAffected, nil
}

// CountUnread 统计发给 receiver 的全部未读消息数
func (r *messageRepository) CountUnread(receiverID int64) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error; err != nil {
		return 0, wrapDBErrorf(err, "统计未读消息 receiver=%d", receiverID)
	}
	return count, nil
}

// ListConversations 聚合会话列表
// 每个有过消息往来的对端取其最新一条消息（时间相同时取 id 更大的）和未读计数，
// 每次查询现算，不走缓存，保证与消息表强一致
func (r *messageRepository) ListConversations(userID int64, limit, offset int) ([]ConversationRow, error) {
	var rows []ConversationRow
	query := `
		SELECT
			u.id AS user_id,
			u.username,
			u.full_name,
			u.profile_picture,
			u.is_online,
			u.last_seen,
			m.id AS last_message_id,
			m.content AS last_message,
			m.created_at AS last_message_time,
			m.message_type AS last_message_type,
			m.is_read AS last_message_read,
			m.sender_id AS last_message_sender_id,
			(SELECT COUNT(*) FROM messages x
				WHERE x.sender_id = u.id AND x.receiver_id = ? AND x.is_read = FALSE) AS unread_count
		FROM users u
		JOIN messages m ON m.id = (
			SELECT m2.id FROM messages m2
			WHERE (m2.sender_id = ? AND m2.receiver_id = u.id)
			   OR (m2.sender_id = u.id AND m2.receiver_id = ?)
			ORDER BY m2.created_at DESC, m2.id DESC
			LIMIT 1
		)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?`
	if err := r.db.Raw(query, userID, userID, userID, limit, offset).Scan(&rows).Error; err != nil {
		return nil, wrapDBErrorf(err, "聚合会话列表 user=%d", userID)
	}
	return rows, nil
}

// Search 按内容子串搜索消息
// peerID 非 0 时限定为与该对端的会话，否则搜索该用户收发的全部消息
func (r *messageRepository) Search(userID, peerID int64, keyword string, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	db := r.db.Model(&model.Message{})
	if peerID != 0 {
		db = db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID)
	} else {
		db = db.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}
	if err := db.Where("content LIKE ?", "%"+keyword+"%").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "搜索消息 user=%d keyword=%s", userID, keyword)
	}
	return messages, nil
}

// DeleteByIDAndSender 硬删除消息，仅发送者本人可删
// Message 模型没有 DeletedAt，Delete 即物理删除
func (r *messageRepository) DeleteByIDAndSender(id, senderID int64) (int64, error) {
	res := r.db.Where("id = ? AND sender_id = ?", id, senderID).Delete(&model.Message{})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "删除消息 id=%d sender=%d", id, senderID)
	}
	return res.RowsAffected, nil
}
