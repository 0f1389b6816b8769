package util

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/zeebo/blake3"
	"go.firedancer.io/programtest/pkg/accounts"
)

func PubkeyCmp(a solana.PublicKey, b solana.PublicKey) bool {
	for i := uint64(0); i < 4; i++ {
		a1 := binary.BigEndian.Uint64(a[8*i:])
		b1 := binary.BigEndian.Uint64(b[8*i:])
		if a1 != b1 {
			return a1 < b1
		}
	}
	return false
}

// CalculateAcctHash digests every field of the account state, so two accounts
// hash equal only if they are identical.
func CalculateAcctHash(acct accounts.Account) []byte {
	hasher := blake3.New()

	var lamportBytes [8]byte
	binary.LittleEndian.PutUint64(lamportBytes[:], acct.Lamports)
	_, _ = hasher.Write(lamportBytes[:])

	var rentEpochBytes [8]byte
	binary.LittleEndian.PutUint64(rentEpochBytes[:], acct.RentEpoch)
	_, _ = hasher.Write(rentEpochBytes[:])

	_, _ = hasher.Write(acct.Data)

	if acct.Executable {
		_, _ = hasher.Write([]byte{1})
	} else {
		_, _ = hasher.Write([]byte{0})
	}

	_, _ = hasher.Write(acct.Owner[:])
	_, _ = hasher.Write(acct.Key[:])

	return hasher.Sum(nil)
}

func PrettyPrintAcct(acct *accounts.Account) string {
	return fmt.Sprintf("account %s: lamports=%d, owner=%s, executable=%t, rent_epoch=%d, data_len=%d, hash=%x",
		acct.Key, acct.Lamports, acct.Owner, acct.Executable, acct.RentEpoch, len(acct.Data), CalculateAcctHash(*acct))
}
