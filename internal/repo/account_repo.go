package repo

import (
	"context"
	"database/sql"
	"sync"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/ai360/internal/model"
	"github.com/xxxsen/ai360/internal/pkg/dbutil"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

// AccountStore holds credentials. Create returns ErrConflict for a taken username
// and GetByUsername returns ErrNotFound for an unknown one.
type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
}

type MemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{accounts: make(map[string]model.Account)}
}

func (r *MemoryAccountRepo) Create(ctx context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; ok {
		return appErr.ErrConflict
	}
	r.accounts[account.Username] = *account
	return nil
}

func (r *MemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[username]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &account, nil
}

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *model.Account) error {
	data := map[string]interface{}{
		"username":      account.Username,
		"password_hash": account.PasswordHash,
		"ctime":         account.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("accounts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	where := map[string]interface{}{"username": username}
	sqlStr, args, err := builder.BuildSelect("accounts", where, []string{"username", "password_hash", "ctime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var account model.Account
	if err := rows.Scan(&account.Username, &account.PasswordHash, &account.Ctime); err != nil {
		return nil, err
	}
	return &account, nil
}
