package series

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/paveg/tabula/internal/dtype"
)

// HashValue hashes one canonical value with the given seeds. Values that
// are equal for grouping hash identically.
func HashValue(v any, seeds ...uint64) uint64 {
	var buf [64]byte
	key := buf[:0]
	for _, seed := range seeds {
		key = binary.LittleEndian.AppendUint64(key, seed)
	}
	key = AppendKey(key, v)
	return xxhash.Sum64(key)
}

// Hash returns one UInt64 hash per element. The result depends only on the
// element value and the seeds. Null elements hash to a fixed value.
func (s *Series) Hash(seeds ...uint64) *Series {
	out := make([]uint64, s.Len())
	for i := range out {
		out[i] = HashValue(valueAt(s.array, i), seeds...)
	}
	return s.derive(buildNumeric(dtype.UInt64, out, nil, s.mem))
}
