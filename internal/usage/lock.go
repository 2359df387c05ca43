package usage

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// keyLocks serialises read-then-write sequences per store key within this process.
type keyLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
