// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/watch4deal/admin-backend/internal/models"
)

// catalogRecord is one stored record. Data holds the full serialized record;
// image_urls mirrors the committed image URLs so deletions can report which
// blobs just became unreferenced without re-parsing the document.
type catalogRecord struct {
	Collection string         `gorm:"primaryKey;size:64"`
	RecordID   string         `gorm:"primaryKey;size:64;column:record_id"`
	Data       models.JSONB   `gorm:"type:jsonb;not null"`
	ImageURLs  pq.StringArray `gorm:"type:text[];column:image_urls"`
}

func (catalogRecord) TableName() string {
	return "catalog_records"
}

// PostgresStore persists collections in Postgres and fans full-collection
// snapshots out to in-process subscribers after every write.
type PostgresStore struct {
	db  *gorm.DB
	hub *hub

	// pubMu serializes snapshot load + delivery so a subscriber can never
	// receive an older snapshot after a newer one.
	pubMu sync.Mutex
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&catalogRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog records: %w", err)
	}

	return &PostgresStore{db: db, hub: newHub()}, nil
}

func (p *PostgresStore) Subscribe(collection string, onData func(Snapshot), onErr func(error)) Unsubscribe {
	sub, unsubscribe := p.hub.add(collection, onData, onErr)

	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	snap, err := p.loadSnapshot(collection)
	if err != nil {
		sub.fail(&SubscribeError{Collection: collection, Err: err})
		return unsubscribe
	}

	sub.deliver(snap)
	return unsubscribe
}

func (p *PostgresStore) Put(ctx context.Context, collection, id string, record models.JSONB) error {
	row := catalogRecord{
		Collection: collection,
		RecordID:   id,
		Data:       record,
		ImageURLs:  recordImageURLs(record),
	}

	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "record_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return &WriteError{Op: "put", Collection: collection, ID: id, Err: err}
	}

	p.publish(collection)
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	var row catalogRecord
	err := p.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleting an absent key is a success, and there is nothing to echo.
		return nil
	}
	if err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	err = p.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Delete(&catalogRecord{}).Error
	if err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	if len(row.ImageURLs) > 0 {
		logrus.WithFields(logrus.Fields{
			"collection": collection,
			"id":         id,
			"images":     []string(row.ImageURLs),
		}).Info("Record deleted, images unreferenced")
	}

	p.publish(collection)
	return nil
}

func (p *PostgresStore) publish(collection string) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	snap, err := p.loadSnapshot(collection)
	if err != nil {
		p.hub.failAll(collection, &SubscribeError{Collection: collection, Err: err})
		return
	}
	p.hub.broadcast(collection, snap)
}

func (p *PostgresStore) loadSnapshot(collection string) (Snapshot, error) {
	var rows []catalogRecord
	if err := p.db.Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", collection, err)
	}

	snap := make(Snapshot, len(rows))
	for _, row := range rows {
		snap[row.RecordID] = row.Data
	}
	return snap, nil
}

// recordImageURLs pulls the committed image URLs out of a serialized record.
func recordImageURLs(record models.JSONB) pq.StringArray {
	images, ok := record["images"].([]interface{})
	if !ok {
		return nil
	}

	var urls pq.StringArray
	for _, entry := range images {
		img, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if url, ok := img["url"].(string); ok && url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
