package events

import (
	"strconv"

	"qststaking/crypto"
)

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatAddress(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}
