package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/curation-ledger/curation_ledger/internal/config"
	"github.com/curation-ledger/curation_ledger/internal/identity"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

var ErrTokenInvalidated = errors.New("token invalidated")

// Claims is the verified content of an access or refresh token.
type Claims struct {
	Account      common.Address
	TokenVersion int
}

type Service struct {
	cfg    config.Config
	idRepo identity.Repository
	now    func() time.Time
}

func NewService(cfg config.Config, idRepo identity.Repository) *Service {
	return &Service{cfg: cfg, idRepo: idRepo, now: time.Now}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues a token pair for an authenticated principal.
func (s *Service) Login(p identity.Principal) (TokenPair, error) {
	access, err := s.sign(p.Address, p.TokenVersion, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(p.Address, p.TokenVersion, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

func (s *Service) sign(account common.Address, version int, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := map[string]any{
		"sub": account.Hex(),
		"ver": version,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return SignHS256(claims, []byte(secret))
}

// VerifyAccess checks an access token against the signing secret and the
// principal's current token version.
func (s *Service) VerifyAccess(ctx context.Context, token string) (Claims, error) {
	return s.verify(ctx, token, s.cfg.JWTSecret)
}

func (s *Service) verify(ctx context.Context, token, secret string) (Claims, error) {
	raw, err := ParseAndVerifyHS256(token, []byte(secret), s.now())
	if err != nil {
		return Claims{}, err
	}
	sub, _ := raw["sub"].(string)
	account, err := ledger.ParseAddress(sub)
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	ver, _ := raw["ver"].(float64)

	p, err := s.idRepo.FindByAddress(ctx, account)
	if err != nil {
		return Claims{}, fmt.Errorf("resolve principal: %w", err)
	}
	if p.TokenVersion != int(ver) {
		return Claims{}, ErrTokenInvalidated
	}
	return Claims{Account: account, TokenVersion: p.TokenVersion}, nil
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := s.verify(ctx, refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	signed, err := s.sign(claims.Account, claims.TokenVersion, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments the token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, account common.Address) error {
	p, err := s.idRepo.FindByAddress(ctx, account)
	if err != nil {
		return err
	}
	return s.idRepo.UpdateTokenVersion(ctx, account, p.TokenVersion+1)
}
