package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"discord-vanish/models"

	_ "github.com/mattn/go-sqlite3"
)

// JobStore persists vanish job records, one row per channel. Writes replace
// only the affected channel's row, so concurrent jobs in different channels
// never rewrite each other's state.
type JobStore struct {
	db *sql.DB
}

// NewJobStore opens the job database at dbPath, creating the file and the
// jobs table if they don't exist.
func NewJobStore(dbPath string) (*JobStore, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}

	if err := createJobsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}

	log.Printf("Successfully initialized job database at %s", dbPath)

	return &JobStore{db: db}, nil
}

// createJobsTable creates the 'vanish_jobs' table.
func createJobsTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS vanish_jobs (
        channel_id TEXT PRIMARY KEY,
        guild_id TEXT NOT NULL,
        target_user_id TEXT NOT NULL,
        target_user_name TEXT,
        started_at TEXT,
        current_chunk TEXT NOT NULL DEFAULT '[]',
        chunk_index INTEGER NOT NULL DEFAULT 0,
        chunks_completed INTEGER NOT NULL DEFAULT 0,
        deleted_count INTEGER NOT NULL DEFAULT 0,
        failed_count INTEGER NOT NULL DEFAULT 0,
        total_estimated INTEGER NOT NULL DEFAULT 0,
        is_running INTEGER NOT NULL DEFAULT 0,
        is_cancelled INTEGER NOT NULL DEFAULT 0
    );`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute table creation query: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save writes a job record, replacing any existing record for the channel.
func (s *JobStore) Save(job *models.VanishJob) error {
	chunk, err := json.Marshal(job.CurrentChunk)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk for channel %s: %w", job.ChannelID, err)
	}

	query := `
    INSERT OR REPLACE INTO vanish_jobs (
        channel_id, guild_id, target_user_id, target_user_name, started_at,
        current_chunk, chunk_index, chunks_completed,
        deleted_count, failed_count, total_estimated,
        is_running, is_cancelled
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare job insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		job.ChannelID,
		job.GuildID,
		job.TargetUserID,
		job.TargetUserName,
		job.StartedAt,
		string(chunk),
		job.ChunkIndex,
		job.ChunksCompleted,
		job.DeletedCount,
		job.FailedCount,
		job.TotalEstimated,
		job.IsRunning,
		job.IsCancelled,
	)
	if err != nil {
		return fmt.Errorf("failed to save job for channel %s: %w", job.ChannelID, err)
	}
	return nil
}

const jobColumns = `channel_id, guild_id, target_user_id, target_user_name, started_at,
        current_chunk, chunk_index, chunks_completed,
        deleted_count, failed_count, total_estimated, is_cancelled`

// Load reads the job record for a channel. It returns (nil, nil) when no
// record exists. A loaded record is always paused: a crash or restart never
// leaves a job silently running.
func (s *JobStore) Load(channelID string) (*models.VanishJob, error) {
	row := s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM vanish_jobs WHERE channel_id = ?", jobColumns), channelID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job for channel %s: %w", channelID, err)
	}
	return job, nil
}

// LoadAll reads every persisted job record, each forced to the paused state.
func (s *JobStore) LoadAll() ([]*models.VanishJob, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM vanish_jobs", jobColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.VanishJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Delete removes the job record for a channel, if any.
func (s *JobStore) Delete(channelID string) error {
	if _, err := s.db.Exec("DELETE FROM vanish_jobs WHERE channel_id = ?", channelID); err != nil {
		return fmt.Errorf("failed to delete job for channel %s: %w", channelID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.VanishJob, error) {
	var job models.VanishJob
	var chunk string

	err := row.Scan(
		&job.ChannelID,
		&job.GuildID,
		&job.TargetUserID,
		&job.TargetUserName,
		&job.StartedAt,
		&chunk,
		&job.ChunkIndex,
		&job.ChunksCompleted,
		&job.DeletedCount,
		&job.FailedCount,
		&job.TotalEstimated,
		&job.IsCancelled,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(chunk), &job.CurrentChunk); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chunk for channel %s: %w", job.ChannelID, err)
	}

	// is_running is intentionally not read back; a restored job must be
	// explicitly resumed.
	job.IsRunning = false
	return &job, nil
}
