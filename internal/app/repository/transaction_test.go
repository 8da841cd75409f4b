package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_CommitAndRollback(t *testing.T) {
	conn := setupRepositoryTest(t)
	tm := NewTransactionManager(conn)
	repos := NewRepositories(conn)
	ctx := context.Background()

	require.NoError(t, repos.PendingRegistrations().Upsert(ctx, &model.PendingRegistration{
		Email: "tx@example.com", CredentialDigest: "d", Role: model.RoleEmployer,
		VerificationCode: "123456", CreatedAt: time.Now().UTC(),
	}))
	pending, err := repos.PendingRegistrations().FindByEmailAndCode(ctx, "tx@example.com", "123456")
	require.NoError(t, err)

	errAbort := errors.New("abort")
	err = tm.Execute(ctx, func(tx Repositories) error {
		if err := tx.Accounts().Create(ctx, &model.Account{Email: pending.Email, CredentialDigest: pending.CredentialDigest, Role: pending.Role, Active: true}); err != nil {
			return err
		}
		if _, err := tx.PendingRegistrations().DeleteByEmailAndCode(ctx, pending.Email, pending.VerificationCode); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	exists, err := repos.Accounts().ExistsByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "account must be rolled back")
	_, err = repos.PendingRegistrations().FindByEmailAndCode(ctx, "tx@example.com", "123456")
	assert.NoError(t, err, "pending registration must survive the rollback")

	err = tm.Execute(ctx, func(tx Repositories) error {
		if err := tx.Accounts().Create(ctx, &model.Account{Email: pending.Email, CredentialDigest: pending.CredentialDigest, Role: pending.Role, Active: true}); err != nil {
			return err
		}
		_, err := tx.PendingRegistrations().DeleteByEmailAndCode(ctx, pending.Email, pending.VerificationCode)
		return err
	})
	require.NoError(t, err)

	exists, err = repos.Accounts().ExistsByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = repos.PendingRegistrations().FindByEmailAndCode(ctx, "tx@example.com", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionManager_RollsBackOnPanic(t *testing.T) {
	conn := setupRepositoryTest(t)
	tm := NewTransactionManager(conn)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = tm.Execute(ctx, func(tx Repositories) error {
			_ = tx.Accounts().Create(ctx, &model.Account{Email: "panic@example.com", CredentialDigest: "d", Role: model.RoleJobseeker, Active: true})
			panic("boom")
		})
	})

	exists, err := NewRepositories(conn).Accounts().ExistsByEmail(ctx, "panic@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
