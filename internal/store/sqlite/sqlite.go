package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/havenchat/haven-server/internal/store"
	"github.com/havenchat/haven-server/internal/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	tag           TEXT NOT NULL DEFAULT '0001',
	avatar_url    TEXT NOT NULL DEFAULT '',
	avatar_color  TEXT NOT NULL DEFAULT '#5865F2',
	status        TEXT NOT NULL DEFAULT 'online',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS guilds (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	owner_id    INTEGER NOT NULL REFERENCES users(id),
	invite_code TEXT NOT NULL UNIQUE,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS guild_members (
	guild_id  TEXT NOT NULL REFERENCES guilds(id),
	user_id   INTEGER NOT NULL REFERENCES users(id),
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (guild_id, user_id)
);

CREATE TABLE IF NOT EXISTS channels (
	id       TEXT PRIMARY KEY,
	guild_id TEXT NOT NULL REFERENCES guilds(id),
	name     TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	type     TEXT NOT NULL DEFAULT 'text'
);

CREATE TABLE IF NOT EXISTS channel_messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id      TEXT NOT NULL REFERENCES channels(id),
	sender_id       INTEGER NOT NULL REFERENCES users(id),
	content         TEXT NOT NULL,
	attachment_url  TEXT,
	attachment_type TEXT,
	attachment_name TEXT,
	reply_to_id     INTEGER,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_channel_messages_channel ON channel_messages(channel_id, id);

CREATE TABLE IF NOT EXISTS friend_requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id   INTEGER NOT NULL REFERENCES users(id),
	receiver_id INTEGER NOT NULL REFERENCES users(id),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (sender_id, receiver_id)
);

CREATE TABLE IF NOT EXISTS friends (
	user_id    INTEGER NOT NULL REFERENCES users(id),
	friend_id  INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, friend_id)
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function after
// the schema is applied. Useful for tests to seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}

	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, username, password_hash, display_name, tag, avatar_url, avatar_color, status, created_at`

func scanUser(row interface{ Scan(...any) error }) (*store.User, error) {
	var u store.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Tag,
		&u.AvatarURL,
		&u.AvatarColor,
		&u.Status,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, displayName string) (*store.User, error) {
	if displayName == "" {
		displayName = username
	}
	tag := fmt.Sprintf("%04d", rand.Intn(9999)+1)

	query := `
		INSERT INTO users (username, password_hash, display_name, tag)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, displayName, tag)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateUserStatus sets the presence status for a username.
func (s *SQLiteStore) UpdateUserStatus(ctx context.Context, username, status string) error {
	if !store.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE username = ?`, status, username)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// UpdateUserProfile updates display name and avatar fields.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id int64, displayName, avatarURL, avatarColor string) error {
	query := `
		UPDATE users
		SET display_name = ?, avatar_url = ?, avatar_color = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, displayName, avatarURL, avatarColor, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindUsersByUsernames batch-fetches presence fields for the given usernames.
func (s *SQLiteStore) FindUsersByUsernames(ctx context.Context, usernames []string) ([]store.UserPresence, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(usernames)-1) + "?"
	query := `
		SELECT username, status, display_name, avatar_url, avatar_color, tag
		FROM users
		WHERE username IN (` + placeholders + `)
	`
	args := make([]any, len(usernames))
	for i, u := range usernames {
		args[i] = u
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	defer rows.Close()

	var out []store.UserPresence
	for rows.Next() {
		var p store.UserPresence
		if err := rows.Scan(&p.Username, &p.Status, &p.DisplayName, &p.AvatarURL, &p.AvatarColor, &p.Tag); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SearchUsers searches for users by username prefix.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username LIKE ? ORDER BY username LIMIT 25`
	rows, err := s.db.QueryContext(ctx, q, query+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ==== GuildStore implementation ====

// CreateGuild creates a guild and adds the owner as a member.
func (s *SQLiteStore) CreateGuild(ctx context.Context, name string, ownerID int64) (*store.Guild, error) {
	id := uuid.NewString()
	code := utils.NewInviteCode()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO guilds (id, name, owner_id, invite_code) VALUES (?, ?, ?, ?)`,
		id, name, ownerID, code,
	); err != nil {
		return nil, fmt.Errorf("insert guild: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO guild_members (guild_id, user_id) VALUES (?, ?)`,
		id, ownerID,
	); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return s.GetGuildByID(ctx, id)
}

func scanGuild(row interface{ Scan(...any) error }) (*store.Guild, error) {
	var g store.Guild
	err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.InviteCode, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan guild: %w", err)
	}
	return &g, nil
}

// GetGuildByID retrieves a guild by ID.
func (s *SQLiteStore) GetGuildByID(ctx context.Context, id string) (*store.Guild, error) {
	query := `SELECT id, name, owner_id, invite_code, created_at FROM guilds WHERE id = ?`
	return scanGuild(s.db.QueryRowContext(ctx, query, id))
}

// GetGuildByInviteCode retrieves a guild by invite code.
func (s *SQLiteStore) GetGuildByInviteCode(ctx context.Context, code string) (*store.Guild, error) {
	query := `SELECT id, name, owner_id, invite_code, created_at FROM guilds WHERE invite_code = ?`
	return scanGuild(s.db.QueryRowContext(ctx, query, code))
}

// ListGuilds lists guilds the user is a member of.
func (s *SQLiteStore) ListGuilds(ctx context.Context, userID int64) ([]*store.Guild, error) {
	query := `
		SELECT g.id, g.name, g.owner_id, g.invite_code, g.created_at
		FROM guilds g
		JOIN guild_members m ON m.guild_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*store.Guild
	for rows.Next() {
		g, err := scanGuild(rows)
		if err != nil {
			return nil, err
		}
		guilds = append(guilds, g)
	}
	return guilds, rows.Err()
}

// AddGuildMember adds a user to a guild; adding twice is a no-op.
func (s *SQLiteStore) AddGuildMember(ctx context.Context, guildID string, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO guild_members (guild_id, user_id) VALUES (?, ?)`,
		guildID, userID,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// IsGuildMember checks guild membership.
func (s *SQLiteStore) IsGuildMember(ctx context.Context, guildID string, userID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM guild_members WHERE guild_id = ? AND user_id = ?`,
		guildID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// ListGuildMembers lists users in a guild.
func (s *SQLiteStore) ListGuildMembers(ctx context.Context, guildID string) ([]*store.User, error) {
	query := `
		SELECT u.` + strings.ReplaceAll(userColumns, ", ", ", u.") + `
		FROM users u
		JOIN guild_members m ON m.user_id = u.id
		WHERE m.guild_id = ?
		ORDER BY u.username
	`
	rows, err := s.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ==== ChannelStore implementation ====

// CreateChannel creates a channel under a guild.
func (s *SQLiteStore) CreateChannel(ctx context.Context, guildID, name, category string, channelType store.ChannelType) (*store.Channel, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (id, guild_id, name, category, type) VALUES (?, ?, ?, ?, ?)`,
		id, guildID, name, category, channelType,
	)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return s.GetChannelByID(ctx, id)
}

// GetChannelByID retrieves a channel by ID.
func (s *SQLiteStore) GetChannelByID(ctx context.Context, id string) (*store.Channel, error) {
	var ch store.Channel
	err := s.db.QueryRowContext(ctx,
		`SELECT id, guild_id, name, category, type FROM channels WHERE id = ?`, id,
	).Scan(&ch.ID, &ch.GuildID, &ch.Name, &ch.Category, &ch.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query channel: %w", err)
	}
	return &ch, nil
}

// ListChannels lists channels of a guild ordered by category and name.
func (s *SQLiteStore) ListChannels(ctx context.Context, guildID string) ([]*store.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, name, category, type FROM channels WHERE guild_id = ? ORDER BY category, name`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*store.Channel
	for rows.Next() {
		var ch store.Channel
		if err := rows.Scan(&ch.ID, &ch.GuildID, &ch.Name, &ch.Category, &ch.Type); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

// RenameChannel updates a channel's display name.
func (s *SQLiteStore) RenameChannel(ctx context.Context, id, newName string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE channels SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("rename channel: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteChannel removes a channel and its messages.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channel_messages WHERE channel_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return tx.Commit()
}

// ==== MessageStore implementation ====

// InsertChannelMessage persists one message and returns its id.
func (s *SQLiteStore) InsertChannelMessage(ctx context.Context, msg *store.ChannelMessage) (int64, error) {
	query := `
		INSERT INTO channel_messages
			(channel_id, sender_id, content, attachment_url, attachment_type, attachment_name, reply_to_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.ChannelID, msg.SenderID, msg.Text,
		nullable(msg.AttachmentURL), nullable(msg.AttachmentType), nullable(msg.AttachmentName),
		msg.ReplyToID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

const messageColumns = `
	cm.id, cm.channel_id, cm.sender_id, u.username, cm.content,
	COALESCE(cm.attachment_url, ''), COALESCE(cm.attachment_type, ''), COALESCE(cm.attachment_name, ''),
	cm.reply_to_id, cm.created_at
`

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]*store.ChannelMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.ChannelMessage
	for rows.Next() {
		var m store.ChannelMessage
		if err := rows.Scan(
			&m.ID, &m.ChannelID, &m.SenderID, &m.Sender, &m.Text,
			&m.AttachmentURL, &m.AttachmentType, &m.AttachmentName,
			&m.ReplyToID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// RecentChannelMessages returns the most recent limit messages in
// chronological (oldest to newest) order.
func (s *SQLiteStore) RecentChannelMessages(ctx context.Context, channelID string, limit int) ([]*store.ChannelMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM channel_messages cm
		JOIN users u ON u.id = cm.sender_id
		WHERE cm.channel_id = ?
		ORDER BY cm.id DESC
		LIMIT ?
	`
	msgs, err := s.queryMessages(ctx, query, channelID, limit)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// ListChannelMessages pages backwards through history.
func (s *SQLiteStore) ListChannelMessages(ctx context.Context, channelID string, limit int, beforeID *int64) ([]*store.ChannelMessage, error) {
	var (
		msgs []*store.ChannelMessage
		err  error
	)
	if beforeID != nil {
		query := `
			SELECT ` + messageColumns + `
			FROM channel_messages cm
			JOIN users u ON u.id = cm.sender_id
			WHERE cm.channel_id = ? AND cm.id < ?
			ORDER BY cm.id DESC
			LIMIT ?
		`
		msgs, err = s.queryMessages(ctx, query, channelID, *beforeID, limit)
	} else {
		return s.RecentChannelMessages(ctx, channelID, limit)
	}
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// ==== FriendStore implementation ====

// CreateFriendRequest records a pending request.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (*store.FriendRequest, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_requests (sender_id, receiver_id) VALUES (?, ?)`,
		senderID, receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetFriendRequest(ctx, id)
}

// GetFriendRequest retrieves a request by id.
func (s *SQLiteStore) GetFriendRequest(ctx context.Context, id int64) (*store.FriendRequest, error) {
	var r store.FriendRequest
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, created_at FROM friend_requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query friend request: %w", err)
	}
	return &r, nil
}

// DeleteFriendRequest removes a request.
func (s *SQLiteStore) DeleteFriendRequest(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

// ListFriendRequests lists requests addressed to a user.
func (s *SQLiteStore) ListFriendRequests(ctx context.Context, receiverID int64) ([]*store.FriendRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, created_at FROM friend_requests WHERE receiver_id = ? ORDER BY id`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var reqs []*store.FriendRequest
	for rows.Next() {
		var r store.FriendRequest
		if err := rows.Scan(&r.ID, &r.SenderID, &r.ReceiverID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		reqs = append(reqs, &r)
	}
	return reqs, rows.Err()
}

// AddFriend records an accepted friendship in both directions.
func (s *SQLiteStore) AddFriend(ctx context.Context, userID, friendID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, pair := range [][2]int64{{userID, friendID}, {friendID, userID}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO friends (user_id, friend_id) VALUES (?, ?)`,
			pair[0], pair[1],
		); err != nil {
			return fmt.Errorf("insert friendship: %w", err)
		}
	}
	return tx.Commit()
}

// AreFriends checks an accepted friendship.
func (s *SQLiteStore) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM friends WHERE user_id = ? AND friend_id = ?`,
		userID, friendID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query friendship: %w", err)
	}
	return true, nil
}

// ListFriends lists a user's friends.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64) ([]*store.User, error) {
	query := `
		SELECT u.` + strings.ReplaceAll(userColumns, ", ", ", u.") + `
		FROM users u
		JOIN friends f ON f.friend_id = u.id
		WHERE f.user_id = ?
		ORDER BY u.username
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RemoveFriend deletes a friendship in both directions.
func (s *SQLiteStore) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM friends WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func reverse(msgs []*store.ChannelMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
