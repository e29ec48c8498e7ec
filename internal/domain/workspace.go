package domain

import "time"

type Workspace struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Color        string    `json:"color"`
	IsShared     bool      `json:"isShared"`
	OwnerID      string    `json:"ownerId"`
	ChatCount    int       `json:"chatCount"`
	LastActivity string    `json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
