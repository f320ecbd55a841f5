package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/userdir/apiserver/internal/apperr"
	"github.com/userdir/apiserver/internal/store"
	"github.com/userdir/apiserver/types"
)

// SearchLimit caps the number of users a search returns.
const SearchLimit = 20

const (
	msgUserNotFound = "User not found"
	msgEmailExists  = "Email already exists"
	msgNoFields     = "No fields to update"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, limit, offset int) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	EmailTaken(ctx context.Context, email string, excludeID int) (bool, error)
	Create(ctx context.Context, in types.UserCreate) (types.User, error)
	Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, term string, limit int) ([]types.User, error)
	Ping(ctx context.Context) error
}

// EventPublisher receives committed user changes.
type EventPublisher interface {
	Publish(ctx context.Context, event types.UserEvent) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	events EventPublisher
}

// NewUserService wires the service. A nil publisher drops events.
func NewUserService(repo UserRepository, events EventPublisher) *UserService {
	return &UserService{repo: repo, events: events}
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]types.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Internal("Error fetching users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound(msgUserNotFound)
		}
		return types.User{}, apperr.Internal("Error fetching user", err)
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, in types.UserCreate) (types.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Name) == "" {
		return types.User{}, apperr.BadRequest("name is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return types.User{}, apperr.BadRequest("phone is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return types.User{}, err
	}

	taken, err := s.repo.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return types.User{}, apperr.Internal("Error creating user", err)
	}
	if taken {
		return types.User{}, apperr.Conflict(msgEmailExists)
	}

	user, err := s.repo.Create(ctx, in)
	if err != nil {
		// A concurrent create can slip past the pre-check; the unique
		// constraint catches it.
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, apperr.Conflict(msgEmailExists)
		}
		return types.User{}, apperr.Internal("Error creating user", err)
	}

	s.emit(ctx, types.UserCreated, user.ID, &user)
	return user, nil
}

// Update applies a partial update. Checks run in order: field syntax,
// existence, presence of at least one field, email ownership.
func (s *UserService) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		patch.Email = &email
		if err := validateEmail(email); err != nil {
			return types.User{}, err
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.User{}, apperr.BadRequest("name must not be empty")
	}
	if patch.Phone != nil && strings.TrimSpace(*patch.Phone) == "" {
		return types.User{}, apperr.BadRequest("phone must not be empty")
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound(msgUserNotFound)
		}
		return types.User{}, apperr.Internal("Error updating user", err)
	}

	if patch.Empty() {
		return types.User{}, apperr.BadRequest(msgNoFields)
	}

	if patch.Email != nil {
		taken, err := s.repo.EmailTaken(ctx, *patch.Email, id)
		if err != nil {
			return types.User{}, apperr.Internal("Error updating user", err)
		}
		if taken {
			return types.User{}, apperr.Conflict(msgEmailExists)
		}
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return types.User{}, apperr.NotFound(msgUserNotFound)
		case errors.Is(err, store.ErrConflict):
			return types.User{}, apperr.Conflict(msgEmailExists)
		default:
			return types.User{}, apperr.Internal("Error updating user", err)
		}
	}

	s.emit(ctx, types.UserUpdated, user.ID, &user)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal("Error deleting user", err)
	}

	s.emit(ctx, types.UserDeleted, id, nil)
	return nil
}

// Search returns at most SearchLimit users whose name or email contains query.
func (s *UserService) Search(ctx context.Context, query string) ([]types.User, error) {
	users, err := s.repo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, apperr.Internal("Error searching users", err)
	}
	return users, nil
}

// Ping checks database connectivity.
func (s *UserService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *UserService) emit(ctx context.Context, eventType types.UserEventType, userID int, user *types.User) {
	if s.events == nil {
		return
	}
	event := types.UserEvent{
		Type:       eventType,
		UserID:     userID,
		User:       user,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"event_type": eventType,
			"user_id":    userID,
		}).WithError(err).Warn("failed to publish user event")
	}
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.BadRequest("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.BadRequest("value is not a valid email address")
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return apperr.BadRequest("value is not a valid email address")
	}
	return nil
}
