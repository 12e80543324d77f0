package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// SnapshotRecord is the last good forecast payload for a location. Only the
// raw upstream body is kept; the normalized view is rebuilt on load.
type SnapshotRecord struct {
	LocationKey string
	ID          string
	Latitude    float64
	Longitude   float64
	PlaceName   string
	Source      string
	FetchedAt   time.Time
	Payload     []byte
	PayloadHash string
}

// LocationKey identifies a location at the precision used for upstream requests.
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// SaveSnapshot replaces the stored snapshot for rec.LocationKey.
func (s *Store) SaveSnapshot(ctx context.Context, rec SnapshotRecord) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(rec.Payload); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(rec.Payload)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(location_key, id, latitude, longitude, place_name, source, fetched_at, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_key) DO UPDATE SET
			id = excluded.id,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			place_name = excluded.place_name,
			source = excluded.source,
			fetched_at = excluded.fetched_at,
			payload_compressed = excluded.payload_compressed,
			payload_hash = excluded.payload_hash
	`, rec.LocationKey, rec.ID, rec.Latitude, rec.Longitude, rec.PlaceName, rec.Source,
		rec.FetchedAt.UTC(), buf.Bytes(), hex.EncodeToString(hash[:]))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot for a location, or nil if none is stored.
func (s *Store) GetSnapshot(ctx context.Context, locationKey string) (*SnapshotRecord, error) {
	return s.scanSnapshot(s.db.QueryRowContext(ctx, snapshotSelect+` WHERE location_key = ?`, locationKey))
}

// LatestSnapshot returns the most recently fetched snapshot across all
// locations, or nil if the table is empty.
func (s *Store) LatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	return s.scanSnapshot(s.db.QueryRowContext(ctx, snapshotSelect+` ORDER BY fetched_at DESC LIMIT 1`))
}

// DeleteSnapshotsBefore removes snapshots fetched before cutoff.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const snapshotSelect = `
	SELECT location_key, id, latitude, longitude, COALESCE(place_name, ''), source, fetched_at,
	       payload_compressed, payload_hash
	FROM snapshots`

func (s *Store) scanSnapshot(row *sql.Row) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var compressed []byte
	err := row.Scan(&rec.LocationKey, &rec.ID, &rec.Latitude, &rec.Longitude, &rec.PlaceName,
		&rec.Source, &rec.FetchedAt, &compressed, &rec.PayloadHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	rec.Payload, err = io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return &rec, nil
}
