package database

import (
	"driftchat/models"
)

// CreateMessage creates a new message
func CreateMessage(senderID, receiverID int64, text, image string, replyToID *int64) (*models.Message, error) {
	result, err := DB.Exec(
		"INSERT INTO messages (sender_id, receiver_id, text, image, reply_to_id) VALUES (?, ?, ?, ?, ?)",
		senderID, receiverID, text, image, replyToID,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return GetMessageByID(id)
}

// GetMessageByID retrieves a message by its ID
func GetMessageByID(id int64) (*models.Message, error) {
	msg := &models.Message{}
	err := DB.QueryRow(
		"SELECT id, sender_id, receiver_id, text, image, reply_to_id, created_at FROM messages WHERE id = ?",
		id,
	).Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image, &msg.ReplyToID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessagesBetweenUsers retrieves the conversation between two users,
// oldest first
func GetMessagesBetweenUsers(userID1, userID2 int64) ([]models.Message, error) {
	rows, err := DB.Query(
		`SELECT id, sender_id, receiver_id, text, image, reply_to_id, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, id ASC`,
		userID1, userID2, userID2, userID1,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image,
			&msg.ReplyToID, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
