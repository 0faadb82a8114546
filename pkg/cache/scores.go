package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/GnRlLeclerc/STOI/pkg/stoi"
)

// Key layout:
//
//	{prefix}:{digest} → msgpack-encoded record
//
// The digest covers both signals and every engine setting that changes the
// score, so entries never need invalidation when settings change.

// ErrCorrupt is returned by Get for a record that no longer decodes.
var ErrCorrupt = errors.New("cache: corrupt record")

// DefaultPrefix is the key prefix used by NewScores when none is given.
var DefaultPrefix = Key{"stoi", "v1"}

// record is the stored form of a result.
type record struct {
	Result    stoi.Result `msgpack:"result"`
	CreatedAt int64       `msgpack:"created_at"` // unix nanoseconds
}

// Scores caches stoi.Result values in a Store.
type Scores struct {
	store  Store
	prefix Key
	now    func() time.Time
}

// NewScores wraps store. A nil prefix selects DefaultPrefix.
func NewScores(store Store, prefix Key) *Scores {
	if len(prefix) == 0 {
		prefix = DefaultPrefix
	}
	return &Scores{store: store, prefix: prefix, now: time.Now}
}

// Digest returns the hex SHA-256 identifying the score of deg against ref
// under e and mode.
func Digest(e *stoi.Engine, ref, deg stoi.Signal1D, mode stoi.Mode) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00", e.Config().Fingerprint(), e.Resampler().Name(), mode, ref.SampleRate)
	writeSamples(h, ref.Samples)
	writeSamples(h, deg.Samples)
	return hex.EncodeToString(h.Sum(nil))
}

func writeSamples(h hash.Hash, x []float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(x)))
	h.Write(buf[:])
	for _, v := range x {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
}

func (s *Scores) key(digest string) Key {
	k := make(Key, len(s.prefix)+1)
	copy(k, s.prefix)
	k[len(s.prefix)] = digest
	return k
}

// Get returns the cached result for digest. The boolean is false on a miss.
func (s *Scores) Get(ctx context.Context, digest string) (stoi.Result, bool, error) {
	data, err := s.store.Get(ctx, s.key(digest))
	if errors.Is(err, ErrNotFound) {
		return stoi.Result{}, false, nil
	}
	if err != nil {
		return stoi.Result{}, false, err
	}
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return stoi.Result{}, false, fmt.Errorf("%w %s: %v", ErrCorrupt, digest, err)
	}
	return rec.Result, true, nil
}

// Put stores r under digest.
func (s *Scores) Put(ctx context.Context, digest string, r stoi.Result) error {
	data, err := msgpack.Marshal(record{Result: r, CreatedAt: s.now().UnixNano()})
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.key(digest), data)
}

// Compute returns the cached score of deg against ref, computing and
// storing it on a miss. A corrupt record is deleted and recomputed. The
// boolean reports a cache hit. Errors from the engine are returned
// unchanged and never cached.
func (s *Scores) Compute(ctx context.Context, e *stoi.Engine, ref, deg stoi.Signal1D, mode stoi.Mode) (stoi.Result, bool, error) {
	digest := Digest(e, ref, deg, mode)
	r, ok, err := s.Get(ctx, digest)
	switch {
	case errors.Is(err, ErrCorrupt):
		if err := s.store.Delete(ctx, s.key(digest)); err != nil {
			return stoi.Result{}, false, err
		}
	case err != nil:
		return stoi.Result{}, false, err
	case ok:
		return r, true, nil
	}
	r, err = e.Compute(ref, deg, mode)
	if err != nil {
		return stoi.Result{}, false, err
	}
	if err := s.Put(ctx, digest, r); err != nil {
		return r, false, err
	}
	return r, false, nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int       `json:"entries" yaml:"entries"`
	Bytes   int64     `json:"bytes" yaml:"bytes"`
	Corrupt int       `json:"corrupt" yaml:"corrupt"`
	Oldest  time.Time `json:"oldest,omitzero" yaml:"oldest,omitempty"`
	Newest  time.Time `json:"newest,omitzero" yaml:"newest,omitempty"`
}

// Stats scans every record under the prefix. Records that fail to decode
// are counted in Corrupt.
func (s *Scores) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for entry, err := range s.store.List(ctx, s.prefix) {
		if err != nil {
			return st, err
		}
		st.Entries++
		st.Bytes += int64(len(entry.Value))
		var rec record
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			st.Corrupt++
			continue
		}
		t := time.Unix(0, rec.CreatedAt).UTC()
		if st.Oldest.IsZero() || t.Before(st.Oldest) {
			st.Oldest = t
		}
		if t.After(st.Newest) {
			st.Newest = t
		}
	}
	return st, nil
}

// prefixDropper is implemented by stores that can delete a key range
// without listing it first.
type prefixDropper interface {
	DropPrefix(ctx context.Context, prefix Key) error
}

// Clear deletes every record under the prefix and returns how many were
// removed.
func (s *Scores) Clear(ctx context.Context) (int, error) {
	var keys []Key
	for entry, err := range s.store.List(ctx, s.prefix) {
		if err != nil {
			return 0, err
		}
		keys = append(keys, entry.Key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if d, ok := s.store.(prefixDropper); ok {
		if err := d.DropPrefix(ctx, s.prefix); err != nil {
			return 0, err
		}
		return len(keys), nil
	}
	if err := s.store.BatchDelete(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
