package stockx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultTokenURL = "https://accounts.stockx.com/oauth/token"
	audience        = "gateway.stockx.com"
	cacheKey        = "stockx:token"
	// 期限まで5分を切ったら更新する
	refreshSkew = 5 * time.Minute
)

// Cache persists the current token between restarts (RedisCache fits).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (t Token) fresh(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt.Sub(now) > refreshSkew
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type TokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	cache        Cache
	now          func() time.Time
	httpc        *http.Client

	mu      sync.Mutex
	current Token
}

func NewTokenSource(tokenURL, clientID, clientSecret, refreshToken string, cache Cache) *TokenSource {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &TokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		cache:        cache,
		now:          time.Now,
		httpc:        &http.Client{Timeout: 10 * time.Second},
		current:      Token{RefreshToken: refreshToken},
	}
}

// Token returns a usable access token. A cached token is reused while more
// than five minutes remain; otherwise the refresh grant is tried first and
// client_credentials is the fallback.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.current.fresh(now) {
		return s.current.AccessToken, nil
	}
	if cached, ok := s.loadCached(ctx); ok {
		if cached.RefreshToken == "" {
			cached.RefreshToken = s.current.RefreshToken
		}
		s.current = cached
		if cached.fresh(now) {
			return cached.AccessToken, nil
		}
	}

	if s.current.RefreshToken != "" {
		tok, err := s.requestToken(ctx, map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     s.clientID,
			"client_secret": s.clientSecret,
			"refresh_token": s.current.RefreshToken,
		}, now)
		if err == nil {
			if tok.RefreshToken == "" {
				tok.RefreshToken = s.current.RefreshToken
			}
			s.store(ctx, tok)
			return tok.AccessToken, nil
		}
	}

	if s.clientID == "" || s.clientSecret == "" {
		return "", errors.New("stockx credentials missing")
	}
	tok, err := s.requestToken(ctx, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
		"audience":      audience,
	}, now)
	if err != nil {
		return "", err
	}
	s.store(ctx, tok)
	return tok.AccessToken, nil
}

func (s *TokenSource) requestToken(ctx context.Context, body map[string]string, now time.Time) (Token, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Token{}, errors.Wrap(err, "marshal token request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, bytes.NewReader(b))
	if err != nil {
		return Token{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return Token{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Token{}, fmt.Errorf("stockx token %s http %d: %s", body["grant_type"], resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, errors.Wrap(err, "decode token")
	}
	if tr.AccessToken == "" {
		return Token{}, errors.New("stockx token response missing access_token")
	}
	if tr.TokenType == "" {
		tr.TokenType = "Bearer"
	}
	return Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresAt:    now.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

func (s *TokenSource) loadCached(ctx context.Context) (Token, bool) {
	if s.cache == nil {
		return Token{}, false
	}
	b, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil || !ok {
		return Token{}, false
	}
	var t Token
	if err := json.Unmarshal(b, &t); err != nil {
		return Token{}, false
	}
	return t, true
}

// キャッシュ失敗はメモリ上のトークンで継続する
func (s *TokenSource) store(ctx context.Context, t Token) {
	s.current = t
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey, b, 0)
}
