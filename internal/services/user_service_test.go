package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/charlesng35/releasetrack/pkg/errors"
)

func TestUserServiceCreateAndGet(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	user, err := svc.Create(ctx, CreateUserInput{FirstName: " Ana ", LastName: "Tester", Email: " Ana@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "Ana", user.FirstName)
	require.Equal(t, "ana@example.com", user.Email)

	loaded, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, loaded.ID)

	_, err = svc.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Create(ctx, CreateUserInput{FirstName: "NoMail"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestUserServiceUpdate(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := createTestUser(t, db, "Ana", "ana@example.com")

	updated, err := svc.Update(ctx, user.ID, UpdateUserInput{LastName: strPtr("Lovelace"), Email: strPtr("ADA@example.com")})
	require.NoError(t, err)
	require.Equal(t, "Lovelace", updated.LastName)
	require.Equal(t, "ada@example.com", updated.Email)

	_, err = svc.Update(ctx, user.ID, UpdateUserInput{Email: strPtr("  ")})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	createTestUser(t, db, "Ben", "ben@example.com")
	_, err = svc.Update(ctx, user.ID, UpdateUserInput{Email: strPtr("Ben@example.com")})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.Create(ctx, CreateUserInput{FirstName: "Ben", Email: "ben@example.com"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceListAndSearch(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	createTestUser(t, db, "Ana", "ana@example.com")
	createTestUser(t, db, "Ben", "ben@example.com")

	users, total, err := svc.List(context.Background(), ListUsersOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, users, 2)

	users, total, err = svc.List(context.Background(), ListUsersOptions{Query: "BEN"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Ben", users[0].FirstName)
}

func TestUserServiceUsersByIDs(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db)
	require.NoError(t, err)

	ana := createTestUser(t, db, "Ana", "ana@example.com")
	ben := createTestUser(t, db, "Ben", "ben@example.com")

	users, err := svc.UsersByIDs(context.Background(), []string{ana.ID, "ghost", ben.ID, ana.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = svc.UsersByIDs(context.Background(), []string{"bob", " ", "not-a-uuid"})
	require.NoError(t, err)
	require.Empty(t, users)

	users, err = svc.UsersByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, users)
}
