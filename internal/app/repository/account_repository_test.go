package repository

import (
	"context"
	"testing"

	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepositoryTest(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createAccount(t *testing.T, conn *gorm.DB, email string) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:            email,
		CredentialDigest: "digest",
		Role:             model.RoleJobseeker,
		Active:           true,
	}
	require.NoError(t, NewAccountRepository(conn).Create(context.Background(), account))
	return account
}

func TestAccountRepository_Create(t *testing.T) {
	repo := NewAccountRepository(setupRepositoryTest(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		account *model.Account
		wantErr error
	}{
		{
			name:    "Valid account",
			account: &model.Account{Email: "test@example.com", CredentialDigest: "d", Role: model.RoleJobseeker, Active: true},
		},
		{
			name:    "Duplicate email",
			account: &model.Account{Email: "test@example.com", CredentialDigest: "d2", Role: model.RoleEmployer, Active: true},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.account)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.account.ID)
		})
	}
}

func TestAccountRepository_FindByEmail(t *testing.T) {
	conn := setupRepositoryTest(t)
	repo := NewAccountRepository(conn)
	ctx := context.Background()
	created := createAccount(t, conn, "found@example.com")

	found, err := repo.FindByEmail(ctx, "found@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, model.RoleJobseeker, found.Role)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := repo.ExistsByEmail(ctx, "found@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountRepository_UpdateCredentialDigest(t *testing.T) {
	conn := setupRepositoryTest(t)
	repo := NewAccountRepository(conn)
	ctx := context.Background()
	account := createAccount(t, conn, "digest@example.com")

	require.NoError(t, repo.UpdateCredentialDigest(ctx, account.ID, "new-digest"))

	found, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-digest", found.CredentialDigest)

	assert.ErrorIs(t, repo.UpdateCredentialDigest(ctx, 9999, "x"), ErrNotFound)
}

func TestAccountRepository_CreateInBatches(t *testing.T) {
	repo := NewAccountRepository(setupRepositoryTest(t))
	ctx := context.Background()

	accounts := []model.Account{
		{Email: "a@example.com", CredentialDigest: "d", Role: model.RoleJobseeker, Active: true},
		{Email: "b@example.com", CredentialDigest: "d", Role: model.RoleEmployer, Active: true},
		{Email: "c@example.com", CredentialDigest: "d", Role: model.RoleEmployer, Active: true},
	}
	require.NoError(t, repo.CreateInBatches(ctx, accounts, 2))

	for _, a := range accounts {
		exists, err := repo.ExistsByEmail(ctx, a.Email)
		require.NoError(t, err)
		assert.True(t, exists, a.Email)
	}
	assert.NoError(t, repo.CreateInBatches(ctx, nil, 2))
}

func findPending(t *testing.T, conn *gorm.DB, email string) (*model.PendingRegistration, error) {
	t.Helper()
	var pending model.PendingRegistration
	if err := conn.Where("email = ?", email).First(&pending).Error; err != nil {
		return nil, translate(err)
	}
	return &pending, nil
}

func findToken(t *testing.T, conn *gorm.DB, accountID uint) (*model.CredentialToken, error) {
	t.Helper()
	var token model.CredentialToken
	if err := conn.Where("account_id = ? AND purpose = ?", accountID, model.PurposePasswordReset).First(&token).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}
