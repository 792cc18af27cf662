// Package telegram validates the identity claim handed to the Mini App by
// the Telegram client.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidHash = errors.New("telegram: invalid init data hash")
	ErrExpired     = errors.New("telegram: init data too old")
	ErrNoUser      = errors.New("telegram: init data has no user")
)

// Identity is the Telegram user who opened the Mini App.
type Identity struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// DisplayName joins first and last name.
func (i Identity) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Handle is the Telegram username, or tg_<id> for users without one.
func (i Identity) Handle() string {
	if i.Username != "" {
		return i.Username
	}
	return "tg_" + strconv.FormatInt(i.ID, 10)
}

func (i Identity) IDString() string { return strconv.FormatInt(i.ID, 10) }

// ValidateInitData checks the initData signature against botToken and returns
// the embedded user. maxAge <= 0 disables the auth_date check.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*Identity, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("telegram: parse init data: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidHash
	}
	values.Del("hash")

	expected := Sign(values, botToken)
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrInvalidHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: auth_date: %w", err)
	}
	if maxAge > 0 && now.Sub(time.Unix(authDate, 0)) > maxAge {
		return nil, ErrExpired
	}

	userStr := values.Get("user")
	if userStr == "" {
		return nil, ErrNoUser
	}
	var user Identity
	if err := json.Unmarshal([]byte(userStr), &user); err != nil {
		return nil, fmt.Errorf("telegram: decode user: %w", err)
	}
	if user.ID == 0 {
		return nil, ErrNoUser
	}
	return &user, nil
}

// Sign computes the WebApp hash for values (which must not contain "hash").
func Sign(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, k := range keys {
		for _, v := range values[k] {
			dataCheck = append(dataCheck, k+"="+v)
		}
	}
	dataCheckString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	h := hmac.New(sha256.New, secretKey)
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}
