// Package weightcache stores solved skinning weights in LevelDB so repeated
// renders of the same mesh and clip skip the solver.
package weightcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skeleton"
	"bvh-skin-renderer/internal/skinning"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bumped whenever the solver's output changes for the same inputs.
const formatVersion = 1

const keyPrefix = "weights-"

// Entry is one cached solve.
type Entry struct {
	Version       int                  `json:"version"`
	Influences    []skinning.Influence `json:"influences"`
	InverseBind   []mathutil.Mat4      `json:"inverse_bind"`
	BindPositions []mathutil.Vec3      `json:"bind_positions"`
}

// Key hashes everything a solve depends on. Any change to the motion file,
// the mesh file, the scale or the options yields a different key.
func Key(motion, meshData []byte, scale float64, opts skinning.Options) string {
	h := sha256.New()
	var buf [8]byte
	writeBlock := func(b []byte) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(b)))
		h.Write(buf[:])
		h.Write(b)
	}
	writeBlock(motion)
	writeBlock(meshData)

	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(scale))
	h.Write(buf[:])
	fmt.Fprintf(h, "|v%d|%d|%g|%g|%d", formatVersion,
		opts.HeatIterations, opts.HeatLambda, opts.HeatAnchorRadius, opts.ComponentMaxJoints)

	return hex.EncodeToString(h.Sum(nil))
}

// Store is a LevelDB-backed weight cache. Safe for concurrent use.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the cache database in dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("weightcache: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry for key. A missing key or an entry written by an
// older solver is reported as a miss, not an error.
func (s *Store) Get(key string) (*Entry, bool, error) {
	data, err := s.db.Get([]byte(keyPrefix+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("weightcache: get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("weightcache: decode %s: %w", key, err)
	}
	if e.Version != formatVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores e under key.
func (s *Store) Put(key string, e *Entry) error {
	if e == nil {
		return fmt.Errorf("weightcache: nil entry")
	}
	stored := *e
	stored.Version = formatVersion
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("weightcache: encode: %w", err)
	}
	if err := s.db.Put([]byte(keyPrefix+key), data, nil); err != nil {
		return fmt.Errorf("weightcache: put: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(keyPrefix+key), nil); err != nil {
		return fmt.Errorf("weightcache: delete: %w", err)
	}
	return nil
}

// Keys lists every cached key.
func (s *Store) Keys() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(keyPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("weightcache: list: %w", err)
	}
	return keys, nil
}

// Solve returns the cached weights for key, or runs skinning.Solve and
// caches the result. hit reports whether the solver was skipped. On a hit
// only Influences, InverseBind and BindPositions are filled in.
func (s *Store) Solve(key string, bind *mesh.Mesh, motion *skeleton.Motion, scale float64, opts skinning.Options) (res *skinning.Result, hit bool, err error) {
	e, ok, err := s.Get(key)
	if err != nil {
		return nil, false, err
	}
	if ok && len(e.Influences) == len(bind.Positions) {
		return &skinning.Result{
			Influences:    e.Influences,
			InverseBind:   e.InverseBind,
			BindPositions: e.BindPositions,
		}, true, nil
	}

	res, err = skinning.Solve(bind, motion, scale, opts)
	if err != nil {
		return nil, false, err
	}
	err = s.Put(key, &Entry{
		Influences:    res.Influences,
		InverseBind:   res.InverseBind,
		BindPositions: res.BindPositions,
	})
	return res, false, err
}
