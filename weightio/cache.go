package weightio

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/binzume/quadrig/logging"
	"github.com/binzume/quadrig/mesh"
	"github.com/binzume/quadrig/skeleton"
	"github.com/binzume/quadrig/skinning"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cacheEntry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Rows      int
	Cols      int
	Data      []byte
	CreatedAt time.Time
}

func (cacheEntry) TableName() string {
	return "weight_cache"
}

// Cache keeps computed weight matrices in a SQLite database, keyed by
// CacheKey.
type Cache struct {
	db *gorm.DB
}

// OpenCache opens or creates the cache at path. An empty path uses an
// in-memory database.
func OpenCache(path string) (*Cache, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&cacheEntry{}); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Get returns the cached weights for key, or nil on a miss.
func (c *Cache) Get(key string) (*skinning.WeightMatrix, error) {
	var e cacheEntry
	err := c.db.Where(&cacheEntry{Key: key}).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w, err := Read(bytes.NewReader(e.Data), int64(len(e.Data)))
	if err != nil {
		return nil, err
	}
	if w.Rows != e.Rows || w.Cols != e.Cols {
		logging.Warnf("weight cache entry %s has shape %dx%d, stored %dx%d", key, w.Rows, w.Cols, e.Rows, e.Cols)
		return nil, nil
	}
	return w, nil
}

func (c *Cache) Put(key string, w *skinning.WeightMatrix) error {
	var buf bytes.Buffer
	if err := Write(&buf, w); err != nil {
		return err
	}
	return c.db.Save(&cacheEntry{Key: key, Rows: w.Rows, Cols: w.Cols, Data: buf.Bytes(), CreatedAt: time.Now()}).Error
}

func (c *Cache) Len() (int64, error) {
	var n int64
	err := c.db.Model(&cacheEntry{}).Count(&n).Error
	return n, err
}

func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CacheKey hashes everything the weight calculator reads: vertex positions,
// the joint list and the options. Workers does not change the result and
// is left out.
func CacheKey(m *mesh.Mesh, sk *skeleton.Skeleton, opts *skinning.Options) (string, error) {
	h := sha256.New()
	for i := range m.Vertices {
		v := &m.Vertices[i]
		if err := binary.Write(h, binary.LittleEndian, [3]float64{v.X, v.Y, v.Z}); err != nil {
			return "", err
		}
	}
	descs := make([]skeleton.JointDesc, len(sk.Joints))
	for i, j := range sk.Joints {
		descs[i] = skeleton.JointDesc{
			Name:   j.Name,
			Index:  j.Index,
			Head:   [3]float64{j.Head.X, j.Head.Y, j.Head.Z},
			Tail:   [3]float64{j.Tail.X, j.Tail.Y, j.Tail.Z},
			Parent: j.ParentName,
		}
	}
	enc := json.NewEncoder(h)
	if err := enc.Encode(descs); err != nil {
		return "", err
	}
	hashed := *opts
	hashed.Workers = 0
	if err := enc.Encode(&hashed); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
