package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
	"github.com/xxxsen/ai360/internal/pkg/password"
	"github.com/xxxsen/ai360/internal/repo"
)

const (
	msgSignupMissing = "Please provide both username and password."
	msgSignupTaken   = "Username already exists. Choose a different username."
	msgLoginMissing  = "Please enter both username and password."
	msgLoginFailed   = "Invalid credentials. Please try again."
	msgAlreadySignup = "Already signed up. Please log in."
	msgSignupFirst   = "Please sign up first."
	msgAlreadyLogin  = "Already logged in."
	msgLoginRequired = "Please log in first."
)

type AuthService struct {
	accounts repo.AccountStore
}

func NewAuthService(accounts repo.AccountStore) *AuthService {
	return &AuthService{accounts: accounts}
}

// Register stores a new account. Taken usernames keep their original password.
func (s *AuthService) Register(ctx context.Context, username, plainPassword string) error {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return err
	}
	err = s.accounts.Create(ctx, &model.Account{
		Username:     username,
		PasswordHash: hash,
		Ctime:        time.Now().Unix(),
	})
	if appErr.IsConflict(err) {
		return appErr.WithMessage(appErr.ErrConflict, msgSignupTaken)
	}
	return err
}

// Verify matches the username and password exactly; no trimming or case folding.
func (s *AuthService) Verify(ctx context.Context, username, plainPassword string) error {
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.WithMessage(appErr.ErrUnauthorized, msgLoginFailed)
		}
		return err
	}
	if err := password.Compare(account.PasswordHash, plainPassword); err != nil {
		return appErr.WithMessage(appErr.ErrUnauthorized, msgLoginFailed)
	}
	return nil
}

// Signup moves the session from awaiting_signup to awaiting_login. Callers hold the session lock.
func (s *AuthService) Signup(ctx context.Context, sess *model.Session, username, plainPassword string) error {
	if sess.Auth != model.AuthAwaitingSignup {
		return appErr.WithMessage(appErr.ErrForbidden, msgAlreadySignup)
	}
	if username == "" || plainPassword == "" {
		return appErr.WithMessage(appErr.ErrInvalid, msgSignupMissing)
	}
	if err := s.Register(ctx, username, plainPassword); err != nil {
		logutil.GetLogger(ctx).Info("signup rejected", zap.String("username", username), zap.Error(err))
		return err
	}
	sess.Auth = model.AuthAwaitingLogin
	sess.Mtime = time.Now().Unix()
	logutil.GetLogger(ctx).Info("account created", zap.String("username", username))
	return nil
}

func (s *AuthService) Login(ctx context.Context, sess *model.Session, username, plainPassword string) error {
	switch sess.Auth {
	case model.AuthAwaitingSignup:
		return appErr.WithMessage(appErr.ErrForbidden, msgSignupFirst)
	case model.AuthAuthenticated:
		return appErr.WithMessage(appErr.ErrForbidden, msgAlreadyLogin)
	}
	if username == "" || plainPassword == "" {
		return appErr.WithMessage(appErr.ErrInvalid, msgLoginMissing)
	}
	if err := s.Verify(ctx, username, plainPassword); err != nil {
		logutil.GetLogger(ctx).Info("login rejected", zap.String("username", username))
		return err
	}
	sess.Auth = model.AuthAuthenticated
	sess.Username = username
	sess.Mtime = time.Now().Unix()
	logutil.GetLogger(ctx).Info("login succeeded", zap.String("username", username))
	return nil
}
