package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// UserStatus values accepted by status updates.
const (
	StatusOnline    = "online"
	StatusIdle      = "idle"
	StatusDND       = "dnd"
	StatusInvisible = "invisible"
)

// ValidStatus reports whether s is one of the accepted presence statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDND, StatusInvisible:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	DisplayName  string
	Tag          string // four-digit suffix shown after the display name
	AvatarURL    string
	AvatarColor  string
	Status       string
	CreatedAt    time.Time
}

// UserPresence is the slice of user fields the lobby snapshot carries.
type UserPresence struct {
	Username    string
	Status      string
	DisplayName string
	AvatarURL   string
	AvatarColor string
	Tag         string
}

// Guild is a community ("server") owning channels and members.
type Guild struct {
	ID         string // UUID
	Name       string
	OwnerID    int64
	InviteCode string
	CreatedAt  time.Time
}

// ChannelType distinguishes text channels from voice rooms.
type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
)

// Channel is a guild channel; its id doubles as the live room id.
type Channel struct {
	ID       string // UUID
	GuildID  string
	Name     string
	Category string
	Type     ChannelType
}

// ChannelMessage is a persisted chat message.
type ChannelMessage struct {
	ID             int64
	ChannelID      string
	SenderID       int64
	Sender         string // username, joined on reads
	Text           string
	AttachmentURL  string
	AttachmentType string
	AttachmentName string
	ReplyToID      *int64
	CreatedAt      time.Time
}

// FriendRequest is a pending request with its own primary key.
type FriendRequest struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash, displayName string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserStatus sets the presence status for a username.
	UpdateUserStatus(ctx context.Context, username, status string) error

	// UpdateUserProfile updates display name and avatar fields.
	UpdateUserProfile(ctx context.Context, id int64, displayName, avatarURL, avatarColor string) error

	// FindUsersByUsernames batch-fetches presence fields for the given usernames.
	FindUsersByUsernames(ctx context.Context, usernames []string) ([]UserPresence, error)

	// SearchUsers searches for users by username prefix.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// GuildStore handles guild persistence.
type GuildStore interface {
	// CreateGuild creates a guild and adds the owner as a member.
	CreateGuild(ctx context.Context, name string, ownerID int64) (*Guild, error)

	// GetGuildByID retrieves a guild by ID.
	GetGuildByID(ctx context.Context, id string) (*Guild, error)

	// GetGuildByInviteCode retrieves a guild by invite code.
	GetGuildByInviteCode(ctx context.Context, code string) (*Guild, error)

	// ListGuilds lists guilds the user is a member of.
	ListGuilds(ctx context.Context, userID int64) ([]*Guild, error)

	// AddGuildMember adds a user to a guild; adding twice is a no-op.
	AddGuildMember(ctx context.Context, guildID string, userID int64) error

	// IsGuildMember checks guild membership.
	IsGuildMember(ctx context.Context, guildID string, userID int64) (bool, error)

	// ListGuildMembers lists users in a guild.
	ListGuildMembers(ctx context.Context, guildID string) ([]*User, error)
}

// ChannelStore handles channel persistence.
type ChannelStore interface {
	// CreateChannel creates a channel under a guild.
	CreateChannel(ctx context.Context, guildID, name, category string, channelType ChannelType) (*Channel, error)

	// GetChannelByID retrieves a channel by ID.
	GetChannelByID(ctx context.Context, id string) (*Channel, error)

	// ListChannels lists channels of a guild ordered by category and name.
	ListChannels(ctx context.Context, guildID string) ([]*Channel, error)

	// RenameChannel updates a channel's display name.
	RenameChannel(ctx context.Context, id, newName string) error

	// DeleteChannel removes a channel and its messages.
	DeleteChannel(ctx context.Context, id string) error
}

// MessageStore handles channel message persistence.
type MessageStore interface {
	// InsertChannelMessage persists one message and returns its id.
	InsertChannelMessage(ctx context.Context, msg *ChannelMessage) (int64, error)

	// RecentChannelMessages returns the most recent limit messages in
	// chronological (oldest to newest) order.
	RecentChannelMessages(ctx context.Context, channelID string, limit int) ([]*ChannelMessage, error)

	// ListChannelMessages pages backwards through history: messages older
	// than beforeID (all if nil), newest page first in chronological order.
	ListChannelMessages(ctx context.Context, channelID string, limit int, beforeID *int64) ([]*ChannelMessage, error)
}

// FriendStore handles friend relationships.
type FriendStore interface {
	// CreateFriendRequest records a pending request.
	CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error)

	// GetFriendRequest retrieves a request by id.
	GetFriendRequest(ctx context.Context, id int64) (*FriendRequest, error)

	// DeleteFriendRequest removes a request (accept and reject both end here).
	DeleteFriendRequest(ctx context.Context, id int64) error

	// ListFriendRequests lists requests addressed to a user.
	ListFriendRequests(ctx context.Context, receiverID int64) ([]*FriendRequest, error)

	// AddFriend records an accepted friendship (both directions).
	AddFriend(ctx context.Context, userID, friendID int64) error

	// AreFriends checks an accepted friendship.
	AreFriends(ctx context.Context, userID, friendID int64) (bool, error)

	// ListFriends lists a user's friends.
	ListFriends(ctx context.Context, userID int64) ([]*User, error)

	// RemoveFriend deletes a friendship in both directions.
	RemoveFriend(ctx context.Context, userID, friendID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	GuildStore
	ChannelStore
	MessageStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
