package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/programtest/pkg/safemath"
)

// LamportsCell is a shared handle on one account's lamport balance. Every
// AccountInfo built for the same key holds the same cell.
type LamportsCell struct {
	lamports *uint64
}

func (c *LamportsCell) Get() uint64 {
	return *c.lamports
}

func (c *LamportsCell) Set(lamports uint64) {
	*c.lamports = lamports
}

func (c *LamportsCell) CheckedAdd(lamports uint64) error {
	sum, err := safemath.CheckedAddU64(*c.lamports, lamports)
	if err != nil {
		return ProgramErrArithmeticOverflow
	}
	*c.lamports = sum
	return nil
}

func (c *LamportsCell) CheckedSub(lamports uint64) error {
	diff, err := safemath.CheckedSubU64(*c.lamports, lamports)
	if err != nil {
		return ProgramErrInsufficientFunds
	}
	*c.lamports = diff
	return nil
}

// DataCell is a shared handle on one account's data buffer.
type DataCell struct {
	data *[]byte
}

// Bytes returns the live buffer. Writes through the returned slice are visible
// to every view of the account until the next Set or Realloc.
func (c *DataCell) Bytes() []byte {
	return *c.data
}

func (c *DataCell) Len() int {
	return len(*c.data)
}

// Set replaces the buffer contents with a copy of data.
func (c *DataCell) Set(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	*c.data = buf
}

// Realloc resizes the buffer, zero-filling any newly exposed bytes.
func (c *DataCell) Realloc(newLen int) error {
	if newLen < 0 {
		return ProgramErrInvalidRealloc
	}
	cur := *c.data
	if newLen <= len(cur) {
		*c.data = cur[:newLen:newLen]
		return nil
	}
	buf := make([]byte, newLen)
	copy(buf, cur)
	*c.data = buf
	return nil
}

// AccountInfo is the view of one account handed to a processing function.
// The flags are fixed for the duration of the invocation.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Executable bool
	RentEpoch  uint64
	Lamports   *LamportsCell
	Data       *DataCell

	owner *solana.PublicKey
}

func (ai *AccountInfo) Owner() solana.PublicKey {
	return *ai.owner
}

func (ai *AccountInfo) IsOwnedBy(programId solana.PublicKey) bool {
	return *ai.owner == programId
}
