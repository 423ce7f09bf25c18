package domain

import (
	"errors"
	"time"
)

// Barista is a worker process of the order pipeline.
type Barista struct {
	ID              int
	Name            string
	Station         string
	Status          BaristaStatus
	LastSeen        time.Time
	OrdersProcessed int
	CreatedAt       time.Time
}

type BaristaStatus string

const (
	BaristaStatusOnline  BaristaStatus = "online"
	BaristaStatusOffline BaristaStatus = "offline"
)

func NewBarista(name, station string) (*Barista, error) {
	if name == "" {
		return nil, errors.New("barista name is required")
	}

	now := time.Now()
	return &Barista{
		Name:      name,
		Station:   station,
		Status:    BaristaStatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, nil
}

// Heartbeat refreshes LastSeen and brings the barista back online.
func (b *Barista) Heartbeat(now time.Time) {
	b.LastSeen = now
	b.Status = BaristaStatusOnline
}

func (b *Barista) SetOffline() {
	b.Status = BaristaStatusOffline
}

// IsOnline is false when the last heartbeat is older than timeout.
func (b *Barista) IsOnline(now time.Time, timeout time.Duration) bool {
	if b.Status == BaristaStatusOffline {
		return false
	}
	return now.Sub(b.LastSeen) <= timeout
}
