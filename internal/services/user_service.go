package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/releasetrack/internal/models"
	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
}

// UpdateUserInput enumerates mutable user attributes.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// ListUsersOptions controls pagination for user listing.
type ListUsersOptions struct {
	Page     int
	PageSize int
	Query    string
}

// UserService manages users and serves as the notification pipeline's user directory.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Create stores a new user.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	user := &models.User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     email,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateEmail(err) {
			return nil, apperrors.NewBadRequest("email already exists")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(id)).Error
	if isMissingRecord(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// List retrieves users matching the supplied query with pagination.
func (s *UserService) List(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if q := strings.TrimSpace(opts.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("last_name ASC, first_name ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	return users, total, nil
}

// Update persists mutable attributes for an existing user.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperrors.NewBadRequest("email cannot be empty")
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isDuplicateEmail(err) {
			return nil, apperrors.NewBadRequest("email already exists")
		}
		return nil, fmt.Errorf("user service: update user: %w", err)
	}
	return s.GetByID(ctx, user.ID)
}

// UsersByIDs loads the users that exist among ids. Missing or malformed ids
// are ignored.
func (s *UserService) UsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	clean := recordIDs(ids)
	if len(clean) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", clean).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: load users: %w", err)
	}
	return users, nil
}
