package domain

import "time"

type Chat struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	UserID        string     `json:"userId"`
	WorkspaceID   string     `json:"workspaceId,omitempty"`
	MessageCount  int        `json:"messageCount"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	IsArchived    bool       `json:"isArchived"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Message struct {
	ID        string           `json:"id"`
	ChatID    string           `json:"chatId"`
	UserID    string           `json:"userId"`
	Content   string           `json:"content"`
	Role      string           `json:"role"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	Tokens    int              `json:"tokens,omitempty"`
	IsEdited  bool             `json:"isEdited"`
	EditedAt  *time.Time       `json:"editedAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type MessageMetadata struct {
	DataResult  *DataResult  `json:"dataResult,omitempty"`
	QueryInfo   *QueryInfo   `json:"queryInfo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
}

// ReactionType enumerates the supported message reactions.
type ReactionType string

const (
	ReactionLike     ReactionType = "like"
	ReactionDislike  ReactionType = "dislike"
	ReactionBookmark ReactionType = "bookmark"
	ReactionStar     ReactionType = "star"
)

type Reaction struct {
	Type      ReactionType `json:"type"`
	UserID    string       `json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Attachment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}
