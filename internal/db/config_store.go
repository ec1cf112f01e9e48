package db

import (
	"database/sql"
	"errors"
	"time"
)

const walletAuthorizedKey = "wallet_authorized"

func GetConfig(key string) (string, error) {
	var val string
	err := db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

func SetConfig(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO config (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

func GetNodeID() (string, error) {
	return GetConfig("node_id")
}

// AuthStore persists which local-key account the user has authorized, the
// equivalent of a wallet remembering a site permission.
type AuthStore struct{}

// Authorized returns the stored account, or "" if none was granted yet.
func (AuthStore) Authorized() (string, error) {
	v, err := GetConfig(walletAuthorizedKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// Authorize records the account as granted.
func (AuthStore) Authorize(account string) error {
	return SetConfig(walletAuthorizedKey, account)
}
