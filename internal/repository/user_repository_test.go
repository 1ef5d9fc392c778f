package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gasspot/gasspot-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "password", "nickname", "profile_path",
	"agree_with_marketing", "login_method", "refresh_token", "created_at", "updated_at",
}

func TestUserRepository_FindByEmail_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(id.String(), "a@b.com", "$2a$10$hash", "alice", nil, true, nil, nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "alice", user.Nickname)
	assert.True(t, user.AgreeWithMarketing)
	assert.False(t, user.IsSocial())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "x@y.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_FindByID_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find user")
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE nickname = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := repo.ExistsByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByNickname(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_AssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Email: "a@b.com", Password: "hash", Nickname: "alice"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEqual(t, uuid.Nil, user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.User{Email: "a@b.com", Password: "hash", Nickname: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "failed to create user")
}

func TestUserRepository_Save_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Save(context.Background(), &models.User{ID: uuid.New(), Email: "a@b.com", Nickname: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_Create_OtherErrorsPassThrough(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.User{Email: "a@b.com", Password: "hash", Nickname: "alice"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUserRepository_UpdatePasswordByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE "users" SET "password"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePasswordByID(context.Background(), uuid.New(), "new-hash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteWithTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE user_id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "users" WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithTokens(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteWithTokens_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "refresh_tokens"`).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := repo.DeleteWithTokens(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete refresh tokens")
	require.NoError(t, mock.ExpectationsWereMet())
}
