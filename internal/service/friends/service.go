package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/havenchat/haven-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestAlreadyExists = errors.New("friend request already exists")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotFriends           = errors.New("not friends")
)

// Service provides friend management business logic.
type Service struct {
	store store.Store
}

// New creates a new friends service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// SendRequest records a pending friend request from one user to another.
// A request in the opposite direction is accepted immediately instead of
// creating a mirrored duplicate.
func (s *Service) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*store.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotFriendSelf
	}

	if _, err := s.store.GetUserByID(ctx, toUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup target user: %w", err)
	}

	already, err := s.store.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if already {
		return nil, ErrAlreadyFriends
	}

	if _, err := s.pendingBetween(ctx, fromUserID, toUserID); err == nil {
		return nil, ErrRequestAlreadyExists
	}

	// mutual interest: the other side already asked, so just accept theirs
	if reverse, err := s.pendingBetween(ctx, toUserID, fromUserID); err == nil {
		if err := s.accept(ctx, reverse); err != nil {
			return nil, err
		}
		return reverse, nil
	}

	req, err := s.store.CreateFriendRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}

	return req, nil
}

// AcceptRequest accepts a pending request addressed to userID.
func (s *Service) AcceptRequest(ctx context.Context, userID, requestID int64) error {
	req, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		return ErrRequestNotFound
	}
	if req.ReceiverID != userID {
		return ErrRequestNotFound
	}

	return s.accept(ctx, req)
}

func (s *Service) accept(ctx context.Context, req *store.FriendRequest) error {
	if err := s.store.AddFriend(ctx, req.SenderID, req.ReceiverID); err != nil {
		return fmt.Errorf("record friendship: %w", err)
	}
	if err := s.store.DeleteFriendRequest(ctx, req.ID); err != nil {
		return fmt.Errorf("clear friend request: %w", err)
	}
	return nil
}

// RejectRequest discards a pending request addressed to userID.
func (s *Service) RejectRequest(ctx context.Context, userID, requestID int64) error {
	req, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		return ErrRequestNotFound
	}
	if req.ReceiverID != userID {
		return ErrRequestNotFound
	}

	if err := s.store.DeleteFriendRequest(ctx, req.ID); err != nil {
		return fmt.Errorf("reject request: %w", err)
	}
	return nil
}

// ListFriends returns the user's accepted friends.
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]*store.User, error) {
	list, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return list, nil
}

// ListPendingRequests returns incoming pending requests for a user.
func (s *Service) ListPendingRequests(ctx context.Context, userID int64) ([]*store.FriendRequest, error) {
	reqs, err := s.store.ListFriendRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return reqs, nil
}

// RemoveFriend dissolves an accepted friendship in both directions.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	ok, err := s.store.AreFriends(ctx, userID, friendID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if !ok {
		return ErrNotFriends
	}

	if err := s.store.RemoveFriend(ctx, userID, friendID); err != nil {
		return fmt.Errorf("remove friend: %w", err)
	}
	return nil
}

// IsFriend checks whether two users are friends.
func (s *Service) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	return s.store.AreFriends(ctx, userID, friendID)
}

func (s *Service) pendingBetween(ctx context.Context, senderID, receiverID int64) (*store.FriendRequest, error) {
	reqs, err := s.store.ListFriendRequests(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	for _, r := range reqs {
		if r.SenderID == senderID {
			return r, nil
		}
	}
	return nil, ErrRequestNotFound
}
