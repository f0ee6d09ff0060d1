package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/lazypower/recall/internal/memory"
	"github.com/lazypower/recall/internal/temporal"
)

const memoryColumns = `id, content, embedding, embedding_model, created_at,
	confidence, latest, static,
	source, entities, topics, importance, access_count, last_accessed, user_confirmed, container_tags,
	event_time, granularity, ongoing, markers, temporal_type`

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	if len(buf) == 0 {
		return nil
	}
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

func marshalStrings(items []string) string {
	if len(items) == 0 {
		return ""
	}
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalStrings(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	return items
}

// SaveMemory inserts a new record with its relationships. Content, embedding,
// and creation time never change after this point.
func (db *DB) SaveMemory(r *memory.Record, embeddingModel string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save memory: %w", err)
	}
	defer tx.Rollback()

	var lastAccessed *int64
	if r.Metadata.LastAccessed != nil {
		ms := r.Metadata.LastAccessed.UnixMilli()
		lastAccessed = &ms
	}

	var eventTime *int64
	granularity := temporal.GranUnknown
	ongoing := false
	var markers string
	temporalType := temporal.TypePresent
	if r.Temporal != nil {
		if r.Temporal.EventTime != nil {
			ms := r.Temporal.EventTime.UnixMilli()
			eventTime = &ms
		}
		granularity = r.Temporal.Granularity
		ongoing = r.Temporal.Ongoing
		markers = marshalStrings(r.Temporal.Markers)
		temporalType = r.Temporal.Type
	}

	_, err = tx.Exec(`
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Content, encodeEmbedding(r.Embedding), embeddingModel, r.CreatedAt.UnixMilli(),
		r.Confidence, boolInt(r.Latest), boolInt(r.Static),
		string(r.Metadata.Source), marshalStrings(r.Metadata.Entities), marshalStrings(r.Metadata.Topics),
		r.Metadata.Importance, r.Metadata.AccessCount, lastAccessed, boolInt(r.Metadata.UserConfirmed),
		marshalStrings(r.ContainerTags),
		eventTime, string(granularity), boolInt(ongoing), markers, string(temporalType))
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	for _, rel := range r.Relationships {
		if err := upsertRelationship(tx, r.ID, rel); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetMemory returns a record by ID with its relationships, or nil if absent.
func (db *DB) GetMemory(id string) (*memory.Record, error) {
	row := db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)

	r, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}

	rels, err := db.relationshipsFor([]string{id})
	if err != nil {
		return nil, err
	}
	r.Relationships = rels[id]
	return r, nil
}

// AllMemories returns a point-in-time snapshot of every record, in creation
// order, with relationships attached. Implements engine.Snapshot.
func (db *DB) AllMemories() ([]*memory.Record, error) {
	rows, err := db.Query(`SELECT ` + memoryColumns + ` FROM memories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("all memories: %w", err)
	}
	defer rows.Close()

	var records []*memory.Record
	ids := make([]string, 0, 64)
	for rows.Next() {
		r, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		records = append(records, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rels, err := db.relationshipsFor(ids)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		r.Relationships = rels[r.ID]
	}
	return records, nil
}

// LatestMemories returns only records not yet superseded, newest first.
func (db *DB) LatestMemories(limit int) ([]*memory.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`SELECT `+memoryColumns+` FROM memories WHERE latest = 1 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest memories: %w", err)
	}
	defer rows.Close()

	var records []*memory.Record
	for rows.Next() {
		r, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// TouchMemory records a retrieval: bumps access count and last-accessed.
func (db *DB) TouchMemory(id string, now time.Time) error {
	_, err := db.Exec(`
		UPDATE memories SET access_count = access_count + 1, last_accessed = ?
		WHERE id = ?
	`, now.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("touch memory: %w", err)
	}
	return nil
}

// UpdateConfidence sets the stored confidence for a record.
func (db *DB) UpdateConfidence(id string, confidence float64) error {
	_, err := db.Exec(`UPDATE memories SET confidence = ? WHERE id = ?`, confidence, id)
	if err != nil {
		return fmt.Errorf("update confidence: %w", err)
	}
	return nil
}

// ConfirmMemory marks a record as user-confirmed.
func (db *DB) ConfirmMemory(id string) error {
	_, err := db.Exec(`UPDATE memories SET user_confirmed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("confirm memory: %w", err)
	}
	return nil
}

// SaveRelationship persists an edge, replacing any prior edge with the same
// (type, target) so repeated identical edges stay idempotent. The replacement
// re-appends, matching the in-memory ordering. An updates edge marks the
// source as the latest fact in its chain.
func (db *DB) SaveRelationship(sourceID string, rel memory.Relationship) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save relationship: %w", err)
	}
	defer tx.Rollback()

	if err := upsertRelationship(tx, sourceID, rel); err != nil {
		return err
	}

	if rel.Type == memory.RelUpdates {
		if _, err := tx.Exec(`UPDATE memories SET latest = 1 WHERE id = ?`, sourceID); err != nil {
			return fmt.Errorf("mark latest: %w", err)
		}
	}

	return tx.Commit()
}

// MarkSuperseded records that newID replaces oldID: the superseded record
// gets an updates edge pointing at its replacement and loses its latest flag.
// The row itself stays; history is part of the graph.
func (db *DB) MarkSuperseded(oldID, newID string, now time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	rel := memory.Relationship{
		Type:       memory.RelUpdates,
		TargetID:   newID,
		Confidence: 1.0,
		CreatedAt:  now,
	}
	if err := upsertRelationship(tx, oldID, rel); err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE memories SET latest = 0 WHERE id = ?`, oldID); err != nil {
		return fmt.Errorf("clear latest: %w", err)
	}

	return tx.Commit()
}

func upsertRelationship(tx *sql.Tx, sourceID string, rel memory.Relationship) error {
	_, err := tx.Exec(`
		DELETE FROM relationships WHERE source_id = ? AND type = ? AND target_id = ?
	`, sourceID, string(rel.Type), rel.TargetID)
	if err != nil {
		return fmt.Errorf("replace relationship: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO relationships (source_id, type, target_id, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sourceID, string(rel.Type), rel.TargetID, rel.Confidence, rel.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// relationshipsFor loads edges for the given source IDs, insertion-ordered.
func (db *DB) relationshipsFor(ids []string) (map[string][]memory.Relationship, error) {
	out := make(map[string][]memory.Relationship, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}

	rows, err := db.Query(`
		SELECT source_id, type, target_id, confidence, created_at
		FROM relationships WHERE source_id IN (`+placeholders+`)
		ORDER BY seq
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sourceID, relType, targetID string
		var confidence float64
		var createdAt int64
		if err := rows.Scan(&sourceID, &relType, &targetID, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		out[sourceID] = append(out[sourceID], memory.Relationship{
			Type:       memory.RelationType(relType),
			TargetID:   targetID,
			Confidence: confidence,
			CreatedAt:  time.UnixMilli(createdAt),
		})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*memory.Record, error) {
	var r memory.Record
	var embedding []byte
	var embeddingModel sql.NullString
	var createdAt int64
	var latest, static, ongoing, userConfirmed int
	var entities, topics, tags, markers sql.NullString
	var lastAccessed, eventTime sql.NullInt64
	var granularity, temporalType string

	err := row.Scan(&r.ID, &r.Content, &embedding, &embeddingModel, &createdAt,
		&r.Confidence, &latest, &static,
		(*string)(&r.Metadata.Source), &entities, &topics, &r.Metadata.Importance,
		&r.Metadata.AccessCount, &lastAccessed, &userConfirmed, &tags,
		&eventTime, &granularity, &ongoing, &markers, &temporalType)
	if err != nil {
		return nil, err
	}

	r.Embedding = decodeEmbedding(embedding)
	r.CreatedAt = time.UnixMilli(createdAt)
	r.Latest = latest != 0
	r.Static = static != 0
	r.Metadata.Entities = unmarshalStrings(entities.String)
	r.Metadata.Topics = unmarshalStrings(topics.String)
	r.Metadata.UserConfirmed = userConfirmed != 0
	r.ContainerTags = unmarshalStrings(tags.String)
	if lastAccessed.Valid {
		t := time.UnixMilli(lastAccessed.Int64)
		r.Metadata.LastAccessed = &t
	}

	info := temporal.Info{
		StorageTime: r.CreatedAt,
		Granularity: temporal.Granularity(granularity),
		Ongoing:     ongoing != 0,
		Markers:     unmarshalStrings(markers.String),
		Type:        temporal.Type(temporalType),
	}
	if eventTime.Valid {
		t := time.UnixMilli(eventTime.Int64)
		info.EventTime = &t
	}
	r.Temporal = &info

	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
