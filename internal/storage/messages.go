package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ContactMessage struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Message       string    `json:"message"`
	Delivered     bool      `json:"delivered"`
	DeliveryError string    `json:"delivery_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaveContactMessage stores a submission before delivery is attempted and
// returns its id.
func (s *Store) SaveContactMessage(ctx context.Context, name, email, message string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, email, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), name, email, message, millis(s.now()),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save contact message: %w", err)
	}
	return id, nil
}

// MarkDelivery records the delivery result for a stored message.
func (s *Store) MarkDelivery(ctx context.Context, id uuid.UUID, deliveryErr error) error {
	delivered, reason := 1, ""
	if deliveryErr != nil {
		delivered, reason = 0, deliveryErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE contact_messages SET delivered = ?, delivery_error = ? WHERE id = ?`,
		delivered, reason, id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark delivery %s: %w", id, err)
	}
	return nil
}

func (s *Store) RecentContactMessages(ctx context.Context, limit int) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, delivered, delivery_error, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query contact messages: %w", err)
	}
	defer rows.Close()

	var out []ContactMessage
	for rows.Next() {
		var (
			m         ContactMessage
			id        string
			delivered int
			ts        int64
		)
		if err := rows.Scan(&id, &m.Name, &m.Email, &m.Message, &delivered, &m.DeliveryError, &ts); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse contact message id %q: %w", id, err)
		}
		m.ID = parsed
		m.Delivered = delivered == 1
		m.CreatedAt = fromMillis(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}
