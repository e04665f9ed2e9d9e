package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document keys. Each names an independent whole-replace JSON document.
const (
	DocInvites     = "invites"
	DocSettings    = "settings"
	DocStats       = "stats"
	DocAttribution = "attribution"
)

// ErrPersistence marks an unrecoverable write failure. Callers log it and
// keep their in-memory state authoritative; the next mutation retries.
var ErrPersistence = errors.New("persistence failure")

type document struct {
	Key       string `gorm:"primaryKey"`
	Data      datatypes.JSON
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

// Store persists the tracker's four key-value documents as one JSON row each.
// Writes are whole-document replaces; there is no partial update.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Load unmarshals the named document into out (a pointer to a map). A missing
// or unparsable document leaves out untouched and is not an error: the caller
// starts from the empty map it passed in.
func (s *Store) Load(key string, out interface{}) {
	var doc document
	err := s.db.Where("key = ?", key).First(&doc).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Err(err).Str("doc", key).Msg("Document read failed, starting empty")
		}
		return
	}
	if err := json.Unmarshal(doc.Data, out); err != nil {
		log.Warn().Err(err).Str("doc", key).Msg("Document unparsable, starting empty")
	}
}

// Save replaces the named document with v. Returns ErrPersistence-wrapped
// errors only on unrecoverable I/O failure.
func (s *Store) Save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", ErrPersistence, key, err)
	}
	doc := document{Key: key, Data: data, UpdatedAt: time.Now()}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, key, err)
	}
	return nil
}
