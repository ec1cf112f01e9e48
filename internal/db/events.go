package db

import "time"

// MintEvent is an observed NewEpicNFTMinted log.
type MintEvent struct {
	TxHash      string `json:"tx_hash"`
	LogIndex    uint   `json:"log_index"`
	FromAddress string `json:"from_address"`
	TokenID     string `json:"token_id"`
	BlockNumber uint64 `json:"block_number"`
	ObservedAt  int64  `json:"observed_at"`
}

// InsertMintEvent stores an event, ignoring duplicates (a log can be
// delivered again after a resubscribe).
func InsertMintEvent(e *MintEvent) error {
	observed := e.ObservedAt
	if observed == 0 {
		observed = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT OR IGNORE INTO mint_events (tx_hash, log_index, from_address, token_id, block_number, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.TxHash, e.LogIndex, e.FromAddress, e.TokenID, e.BlockNumber, observed)
	return err
}

func GetRecentMintEvents(limit int) ([]MintEvent, error) {
	rows, err := db.Query(`
		SELECT tx_hash, log_index, from_address, token_id, block_number, observed_at
		FROM mint_events ORDER BY observed_at DESC, block_number DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []MintEvent
	for rows.Next() {
		var e MintEvent
		if err := rows.Scan(&e.TxHash, &e.LogIndex, &e.FromAddress, &e.TokenID, &e.BlockNumber, &e.ObservedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func CountMintEvents() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM mint_events`).Scan(&n)
	return n, err
}
