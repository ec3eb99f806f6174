package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
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
	ErrMissingHash      = errors.New("init data hash missing")
	ErrInvalidSignature = errors.New("init data signature mismatch")
	ErrExpired          = errors.New("init data auth_date too old")
)

// User is the subset of the Telegram WebApp user payload the gateway uses.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	AllowsPM     bool   `json:"allows_write_to_pm"`
}

// InitData holds the parsed fields of a validated launch string.
type InitData struct {
	Raw      string
	User     User
	AuthDate time.Time
	QueryID  string
}

// Validator checks launch strings against a bot token.
type Validator struct {
	secret     []byte
	maxAuthAge time.Duration
	now        func() time.Time
}

// NewValidator derives the signing secret from the bot token. maxAuthAge of
// zero disables the freshness check.
func NewValidator(botToken string, maxAuthAge time.Duration) (*Validator, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, errors.New("bot token is required")
	}
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &Validator{
		secret:     mac.Sum(nil),
		maxAuthAge: maxAuthAge,
		now:        time.Now,
	}, nil
}

// Validate verifies the signature and freshness of a raw launch string and
// returns its parsed contents.
func (v *Validator) Validate(raw string) (*InitData, error) {
	if v == nil {
		return nil, errors.New("validator not configured")
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) != 1 {
		return nil, ErrInvalidSignature
	}

	data := &InitData{Raw: raw, QueryID: values.Get("query_id")}

	if authDate := values.Get("auth_date"); authDate != "" {
		unix, err := strconv.ParseInt(authDate, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse auth_date: %w", err)
		}
		data.AuthDate = time.Unix(unix, 0)
		if v.maxAuthAge > 0 && v.now().Sub(data.AuthDate) > v.maxAuthAge {
			return nil, ErrExpired
		}
	}

	if userJSON := values.Get("user"); userJSON != "" {
		if err := json.Unmarshal([]byte(userJSON), &data.User); err != nil {
			return nil, fmt.Errorf("parse user payload: %w", err)
		}
	}
	if data.User.ID == 0 {
		return nil, errors.New("init data has no user")
	}

	return data, nil
}

// Sign produces a launch string signed for the validator's bot token. Test
// fixtures and local tooling use it; production init data comes from Telegram.
func (v *Validator) Sign(values url.Values, authDate time.Time) string {
	cloned := url.Values{}
	for key, vals := range values {
		if key == "hash" {
			continue
		}
		for _, val := range vals {
			cloned.Add(key, val)
		}
	}
	if !authDate.IsZero() {
		cloned.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	}

	pairs := make([]string, 0, len(cloned))
	for key := range cloned {
		pairs = append(pairs, key+"="+cloned.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	cloned.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return cloned.Encode()
}
