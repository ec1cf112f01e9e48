package db

// Journal adapts the package-level store to the panel's journal hooks.
type Journal struct{}

func (Journal) StartAttempt(account string) (string, error) {
	return InsertMintAttempt(account)
}

func (Journal) SubmittedAttempt(id, txHash string) error {
	return SetMintAttemptTx(id, txHash)
}

func (Journal) FinishAttempt(id, txHash string, mintErr error) error {
	if mintErr != nil {
		return FinishMintAttempt(id, txHash, MintFailed, mintErr.Error())
	}
	return FinishMintAttempt(id, txHash, MintMined, "")
}

func (Journal) RecordEvent(txHash string, logIndex uint, from, tokenID string, block uint64) error {
	return InsertMintEvent(&MintEvent{
		TxHash:      txHash,
		LogIndex:    logIndex,
		FromAddress: from,
		TokenID:     tokenID,
		BlockNumber: block,
	})
}
