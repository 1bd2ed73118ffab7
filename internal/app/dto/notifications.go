package dto

import (
	"time"

	domainnotifications "locadz/internal/domain/notifications"
)

type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

type NotificationCollection struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

func MapNotifications(items []*domainnotifications.Notification) NotificationCollection {
	out := NotificationCollection{Items: make([]Notification, 0, len(items))}
	for _, n := range items {
		if !n.Read {
			out.Unread++
		}
		out.Items = append(out.Items, Notification{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
