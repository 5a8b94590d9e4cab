package api

import (
	"context"
	"sync"
	"tourbook/entities"
)

type NotificationsMock struct {
	lock sync.Mutex

	Sent    []entities.Notification
	SendErr error
}

func (m *NotificationsMock) Send(ctx context.Context, notice entities.Notification) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.SendErr != nil {
		return m.SendErr
	}

	m.Sent = append(m.Sent, notice)
	return nil
}

func (m *NotificationsMock) Snapshot() []entities.Notification {
	m.lock.Lock()
	defer m.lock.Unlock()

	return append([]entities.Notification(nil), m.Sent...)
}
