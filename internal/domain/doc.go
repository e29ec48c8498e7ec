// Package domain holds the core types shared across the SDK: users, sessions,
// chats, messages, datasets, and the sentinel errors surfaced to callers.
package domain
