// Package flash carries one-shot user messages across a POST → redirect → GET
// cycle in a signed cookie.
package flash

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the name of the cookie holding pending messages.
	CookieName = "flash"

	// DefaultTTL bounds how long an unread message survives.
	DefaultTTL = 60 * time.Second

	// maxTextRunes keeps the signed cookie well under browser size limits.
	maxTextRunes = 500
)

// Categories understood by the templates.
const (
	CategorySuccess = "success"
	CategoryError   = "error"
)

// Message is a single flash message.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Success returns a success message.
func Success(text string) Message {
	return Message{Category: CategorySuccess, Text: text}
}

// Error returns an error message.
func Error(text string) Message {
	return Message{Category: CategoryError, Text: text}
}

type claims struct {
	Messages []Message `json:"messages"`
	jwt.RegisteredClaims
}

// Store signs and verifies flash cookies with an HMAC secret.
type Store struct {
	secret []byte
	ttl    time.Duration
}

// NewStore creates a store signing with secret.
func NewStore(secret string) *Store {
	return &Store{secret: []byte(secret), ttl: DefaultTTL}
}

// Set replaces any pending messages with msgs.
func (s *Store) Set(w http.ResponseWriter, msgs ...Message) error {
	for i := range msgs {
		msgs[i].Text = truncate(msgs[i].Text, maxTextRunes)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("Set: signing flash cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending messages and clears the cookie. Missing, expired or
// tampered cookies yield no messages.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	msgs, err := s.parse(cookie.Value)
	if err != nil {
		return nil
	}
	return msgs
}

func (s *Store) parse(value string) ([]Message, error) {
	var c claims
	token, err := jwt.ParseWithClaims(value, &c, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("parse: invalid flash token")
	}
	return c.Messages, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
