package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/db"
)

var nowFn = time.Now

type Service struct {
	db  db.Querier
	hub *Hub
}

func NewService(q db.Querier, hub *Hub) *Service {
	return &Service{db: q, hub: hub}
}

// Send appends a message to the pin's channel and pushes the full ordered
// message list to subscribers. There is no length limit and no rate limit.
func (s *Service) Send(ctx context.Context, pinID, senderID, username, text string) (Message, error) {
	if senderID == "" {
		return Message{}, errors.New("sender required")
	}

	now := nowFn()
	msg := Message{
		ID:        newPushKey(now),
		PinID:     pinID,
		SenderID:  senderID,
		Username:  username,
		Message:   text,
		Timestamp: now.UnixMilli(),
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO chat_messages (id, pin_id, sender_id, username, message, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, msg.ID, msg.PinID, msg.SenderID, msg.Username, msg.Message, msg.Timestamp)
	if err != nil {
		return Message{}, err
	}

	s.publish(ctx, pinID)
	return msg, nil
}

// History returns the channel in push-key order, which approximates send
// order (exact wall-clock order across devices is not guaranteed).
func (s *Service) History(ctx context.Context, pinID string) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, pin_id, sender_id, username, message, sent_at
		FROM chat_messages WHERE pin_id=$1
		ORDER BY id
	`, pinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.PinID, &m.SenderID, &m.Username, &m.Message, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Service) publish(ctx context.Context, pinID string) {
	if s.hub == nil {
		return
	}
	history, err := s.History(ctx, pinID)
	if err != nil {
		log.Printf("chat history for broadcast failed: %v", err)
		return
	}
	payload, _ := json.Marshal(history)
	s.hub.Broadcast(pinID, payload)
}
