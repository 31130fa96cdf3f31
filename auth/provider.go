package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"clipshare/db"
	"clipshare/middleware"
	"clipshare/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSignInFailed = errors.New("sign in failed")
	ErrAuthProvider = errors.New("identity provider error")
	ErrConflict     = errors.New("username or email already registered")
	ErrInvalidInput = errors.New("invalid sign-up details")
	ErrInvalidToken = errors.New("invalid token")
)

const minPasswordLength = 8

// Directory is the user map the provider binds accounts to.
type Directory interface {
	CreateUser(ctx context.Context, email, username string) error
	GetUser(ctx context.Context, username string) (models.User, error)
	UsernameForEmail(ctx context.Context, email string) (string, error)
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Provider struct {
	store  db.Store
	users  Directory
	tokens TokenStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	log    *logrus.Entry
}

func NewProvider(store db.Store, users Directory, tokens TokenStore, secret []byte, ttl time.Duration, log *logrus.Entry) *Provider {
	return &Provider{
		store:  store,
		users:  users,
		tokens: tokens,
		secret: secret,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		log:    log,
	}
}

func accountPath(email string) string {
	return db.JoinPath("accounts", email)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) || strings.ContainsAny(addr.Address, "/$") {
		return "", fmt.Errorf("%w: email", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

// SignUp creates the credential record and the user record. The username
// and the email must both be unused. Both records are claimed with
// insert-if-absent writes, so of two racing sign-ups for one name exactly
// one wins and the loser's account is removed again.
func (p *Provider) SignUp(ctx context.Context, username, email, password string) error {
	name := models.NormalizeUsername(username)
	if !models.ValidUsername(name) {
		return fmt.Errorf("%w: username", ErrInvalidInput)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	if _, err := p.users.GetUser(ctx, name); err == nil {
		return ErrConflict
	} else if !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrAuthProvider, err)
	}

	err = p.store.Create(ctx, accountPath(email), models.Account{
		Username:     name,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	})
	if errors.Is(err, db.ErrExists) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}

	if err := p.users.CreateUser(ctx, email, name); err != nil {
		if derr := p.store.Write(context.WithoutCancel(ctx), accountPath(email), nil); derr != nil {
			p.log.WithError(derr).WithField("email", email).Error("failed to roll back account")
		}
		if errors.Is(err, db.ErrExists) {
			return ErrConflict
		}
		return fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}

	p.log.WithField("user", name).Info("user signed up")
	return nil
}

// SignIn checks the password and resolves the username bound to email
// through the user map.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrSignInFailed
	}

	var acct models.Account
	found, err := p.store.Read(ctx, accountPath(email), &acct)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	if !found {
		return Session{}, ErrSignInFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrSignInFailed
	}

	username, err := p.users.UsernameForEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return Session{}, ErrSignInFailed
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}

	return p.issue(ctx, username)
}

func (p *Provider) issue(ctx context.Context, username string) (Session, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	claims := &middleware.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return Session{}, fmt.Errorf("%w: sign token: %v", ErrAuthProvider, err)
	}
	if err := p.tokens.Register(ctx, username, claims.ID, p.ttl); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	return Session{Username: username, Token: signed, ExpiresAt: exp.UTC()}, nil
}

// Verify parses token and checks that it has not been signed out.
func (p *Provider) Verify(ctx context.Context, token string) (*middleware.Claims, error) {
	claims := &middleware.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid || claims.Username == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	ok, err := p.IsSignedIn(ctx, claims.Username, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) IsSignedIn(ctx context.Context, username, tokenID string) (bool, error) {
	ok, err := p.tokens.Registered(ctx, username, tokenID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	return ok, nil
}

// SignOut revokes the token described by claims.
func (p *Provider) SignOut(ctx context.Context, claims *middleware.Claims) error {
	if err := p.tokens.Revoke(ctx, claims.Username, claims.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthProvider, err)
	}
	p.log.WithField("user", claims.Username).Info("user signed out")
	return nil
}
