package db

import (
	"time"

	"github.com/google/uuid"
)

const (
	MintPending = "pending"
	MintMined   = "mined"
	MintFailed  = "failed"
)

// MintAttempt is one submitted makeAnEpicNFT call and its outcome.
type MintAttempt struct {
	ID         string  `json:"id"`
	Account    string  `json:"account"`
	TxHash     *string `json:"tx_hash,omitempty"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt *int64  `json:"finished_at,omitempty"`
}

// InsertMintAttempt opens a pending attempt and returns its id.
func InsertMintAttempt(account string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO mint_attempts (id, account, status, started_at)
		VALUES (?, ?, ?, ?)`,
		id, account, MintPending, time.Now().UnixMilli())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishMintAttempt settles an attempt. txHash and errMsg may be empty.
func FinishMintAttempt(id, txHash, status, errMsg string) error {
	var hashArg, errArg interface{}
	if txHash != "" {
		hashArg = txHash
	}
	if errMsg != "" {
		errArg = errMsg
	}
	_, err := db.Exec(`
		UPDATE mint_attempts SET tx_hash = COALESCE(?, tx_hash), status = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		hashArg, status, errArg, time.Now().UnixMilli(), id)
	return err
}

// SetMintAttemptTx records the hash of a submitted attempt, which stays pending.
func SetMintAttemptTx(id, txHash string) error {
	_, err := db.Exec(`UPDATE mint_attempts SET tx_hash = ? WHERE id = ?`, txHash, id)
	return err
}

// GetMintAttempt returns a single attempt by id.
func GetMintAttempt(id string) (*MintAttempt, error) {
	a := &MintAttempt{}
	err := db.QueryRow(`
		SELECT id, account, tx_hash, status, error, started_at, finished_at
		FROM mint_attempts WHERE id = ?`, id).Scan(
		&a.ID, &a.Account, &a.TxHash, &a.Status, &a.Error, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetRecentMintAttempts returns attempts newest first.
func GetRecentMintAttempts(limit, offset int) ([]MintAttempt, error) {
	rows, err := db.Query(`
		SELECT id, account, tx_hash, status, error, started_at, finished_at
		FROM mint_attempts ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []MintAttempt
	for rows.Next() {
		var a MintAttempt
		if err := rows.Scan(&a.ID, &a.Account, &a.TxHash, &a.Status, &a.Error, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountMintAttempts returns the number of attempts per status.
func CountMintAttempts() (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM mint_attempts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{MintPending: 0, MintMined: 0, MintFailed: 0}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
