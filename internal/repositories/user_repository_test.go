package repository_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shoplite/shoplite/internal/models"
	repository "github.com/shoplite/shoplite/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserRepoTest(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	repo := repository.NewUserRepo(db)
	require.NotNil(t, repo, "NewUserRepo should return a non-nil repository")

	return repo, mock
}

func TestCreateUser(t *testing.T) {
	repo, mock := setupUserRepoTest(t)
	ctx := t.Context()
	now := time.Now()

	insertSQL := regexp.QuoteMeta(`INSERT INTO users (id, email, password, name, role, created_at, updated_at)`)

	user := &models.User{
		ID:       uuid.New(),
		Email:    "jamie@example.com",
		Password: "$2a$10$hash",
		Name:     "Jamie",
		Role:     models.RoleCustomer,
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, user.Email, user.Password, user.Name, user.Role).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		assert.NoError(t, err)
		assert.WithinDuration(t, now, user.CreatedAt, time.Second)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Duplicate Email", func(t *testing.T) {
		// Arrange
		dbErr := errors.New("duplicate key value violates unique constraint")
		mock.ExpectQuery(insertSQL).
			WithArgs(user.ID, user.Email, user.Password, user.Name, user.Role).
			WillReturnError(dbErr)

		// Act
		err := repo.CreateUser(ctx, user)

		// Assert
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	repo, mock := setupUserRepoTest(t)
	ctx := t.Context()

	userID := uuid.New()
	now := time.Now()

	selectSQL := regexp.QuoteMeta(`SELECT id, email, password, name, role, created_at, updated_at`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(selectSQL).WithArgs("jamie@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "name", "role", "created_at", "updated_at"}).
				AddRow(userID, "jamie@example.com", "$2a$10$hash", "Jamie", models.RoleCustomer, now, now))

		// Act
		user, err := repo.GetUserByEmail(ctx, "jamie@example.com")

		// Assert
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(selectSQL).WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password", "name", "role", "created_at", "updated_at"}))

		// Act
		user, err := repo.GetUserByEmail(ctx, "nobody@example.com")

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByID(t *testing.T) {
	repo, mock := setupUserRepoTest(t)
	ctx := t.Context()

	userID := uuid.New()
	now := time.Now()

	selectSQL := regexp.QuoteMeta(`SELECT id, email, name, role, created_at, updated_at`)

	t.Run("Success - Password Not Selected", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(selectSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "updated_at"}).
				AddRow(userID, "jamie@example.com", "Jamie", models.RoleAdmin, now, now))

		// Act
		user, err := repo.GetUserByID(ctx, userID)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Empty(t, user.Password)
		assert.Equal(t, models.RoleAdmin, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mock.ExpectQuery(selectSQL).WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "updated_at"}))

		// Act
		user, err := repo.GetUserByID(ctx, userID)

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
