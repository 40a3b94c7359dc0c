package token

// Mint describes a fungible asset accepted by the ledger.
type Mint struct {
	Address   [20]byte
	Symbol    string
	Decimals  uint8
	Authority [20]byte
	Supply    uint64
}

// Clone returns a copy of the mint metadata.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
