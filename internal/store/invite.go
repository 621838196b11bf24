package store

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const inviteAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateInviteCode returns a code like HOME-K3ZQ417: four base-36
// characters followed by a number in 100 to 999.
func generateInviteCode() (string, error) {
	buf := make([]byte, 4)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(900))
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return fmt.Sprintf("HOME-%s%03d", buf, n.Int64()+100), nil
}
