package maildrain

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
)

// savepointNames hands out savepoint identifiers that are unique within one transaction.
type savepointNames struct {
	prefix string
	n      int
}

func newSavepointNames() *savepointNames {
	var buf [4]byte
	prefix := "sp_"
	if _, err := rand.Read(buf[:]); err == nil {
		prefix += hex.EncodeToString(buf[:]) + "_"
	}
	return &savepointNames{prefix: prefix}
}

// next returns a fresh name made of [a-z0-9_] only, so it can be inlined into SQL.
func (s *savepointNames) next() string {
	s.n++
	return s.prefix + strconv.Itoa(s.n)
}
