package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veristamp/veristamp/internal/duplicate"
)

// Verification is one fingerprinted video as persisted by the worker. The
// engine packages stay stateless; this is the caller-side record.
type Verification struct {
	ID              uuid.UUID
	VideoID         string
	FilePath        string
	SHA256Hash      string
	PHash           string
	DHash           string
	AHash           string
	CreatorName     string
	MerkleTree      []byte // TreeCodec short-key JSON
	RootHash        string
	TotalFrames     int
	FrameIntervalMs int
	DurationMs      int
	DuplicateStatus string
	CreatedAt       time.Time
}

type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create inserts a verification row.
func (r *VerificationRepository) Create(v *Verification) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	query := `
		INSERT INTO verifications (id, video_id, file_path, sha256_hash, phash, dhash, ahash,
		                           creator_name, merkle_tree, root_hash, total_frames,
		                           frame_interval_ms, duration_ms, duplicate_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`
	return r.db.QueryRow(query, v.ID, v.VideoID, v.FilePath, v.SHA256Hash, v.PHash, v.DHash,
		v.AHash, v.CreatorName, v.MerkleTree, v.RootHash, v.TotalFrames,
		v.FrameIntervalMs, v.DurationMs, v.DuplicateStatus).Scan(&v.CreatedAt)
}

// GetByID loads one verification, including the serialized tree.
func (r *VerificationRepository) GetByID(id uuid.UUID) (*Verification, error) {
	query := `
		SELECT id, video_id, file_path, sha256_hash, phash, dhash, ahash, creator_name,
		       merkle_tree, root_hash, total_frames, frame_interval_ms, duration_ms,
		       duplicate_status, created_at
		FROM verifications WHERE id = $1`
	v := &Verification{}
	err := r.db.QueryRow(query, id).Scan(&v.ID, &v.VideoID, &v.FilePath, &v.SHA256Hash,
		&v.PHash, &v.DHash, &v.AHash, &v.CreatorName, &v.MerkleTree, &v.RootHash,
		&v.TotalFrames, &v.FrameIntervalMs, &v.DurationMs, &v.DuplicateStatus, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("verification %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListCorpus returns the full candidate set the duplicate detector scans.
// The detector takes the corpus up front and never queries storage itself.
func (r *VerificationRepository) ListCorpus() ([]duplicate.CorpusEntry, error) {
	query := `
		SELECT id, video_id, sha256_hash, phash, COALESCE(dhash, ''), COALESCE(creator_name, '')
		FROM verifications
		ORDER BY created_at`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corpus []duplicate.CorpusEntry
	for rows.Next() {
		var id uuid.UUID
		var entry duplicate.CorpusEntry
		if err := rows.Scan(&id, &entry.VideoID, &entry.SHA256Hash, &entry.PHash,
			&entry.DHash, &entry.CreatorName); err != nil {
			return nil, err
		}
		entry.VerificationID = id.String()
		corpus = append(corpus, entry)
	}
	return corpus, rows.Err()
}

// UpdateDuplicateStatus marks a verification (clean, potential, addressed).
func (r *VerificationRepository) UpdateDuplicateStatus(id uuid.UUID, status string) error {
	res, err := r.db.Exec(`UPDATE verifications SET duplicate_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("verification %s not found", id)
	}
	return nil
}

// RecordDuplicateCheck stores the full check result alongside the
// verification for later review.
func (r *VerificationRepository) RecordDuplicateCheck(id uuid.UUID, result *duplicate.CheckResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal check result: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO duplicate_checks (id, verification_id, is_duplicate, recommendation, result)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), id, result.IsDuplicate, result.Recommendation, payload)
	return err
}
