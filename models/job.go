package models

import (
	"fmt"
	"time"
)

// VanishJob tracks one bulk-deletion operation, keyed by channel. It is the
// unit of durable state: the engine mutates it in memory and the job store
// persists it so an operation can survive a process restart.
type VanishJob struct {
	ChannelID      string `json:"channel_id"`
	GuildID        string `json:"guild_id"`
	TargetUserID   string `json:"target_user_id"`
	TargetUserName string `json:"target_user_name"`
	StartedAt      string `json:"started_at"` // RFC 3339

	// Current chunk state.
	CurrentChunk    []string `json:"current_chunk"`
	ChunkIndex      int      `json:"chunk_index"` // position within CurrentChunk
	ChunksCompleted int      `json:"chunks_completed"`

	// Stats.
	DeletedCount   int `json:"deleted_count"`
	FailedCount    int `json:"failed_count"`
	TotalEstimated int `json:"total_estimated"` // snapshot taken at job start

	// Control.
	IsRunning   bool `json:"is_running"`
	IsCancelled bool `json:"is_cancelled"`
}

// RemainingInChunk returns how many ids of the current chunk are still
// waiting for deletion.
func (j *VanishJob) RemainingInChunk() int {
	remaining := len(j.CurrentChunk) - j.ChunkIndex
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ProgressPercent reports deletion progress against the initial estimate,
// clamped to [0, 100]. The estimate can drift below the actual count while
// the job runs; the clamp keeps progress from overflowing.
func (j *VanishJob) ProgressPercent() float64 {
	if j.TotalEstimated == 0 {
		return 0
	}
	percent := float64(j.DeletedCount) / float64(j.TotalEstimated) * 100
	if percent > 100 {
		return 100
	}
	return percent
}

// FormatETA estimates remaining time at the given per-delete pacing rate.
func (j *VanishJob) FormatETA(perDelete time.Duration) string {
	inChunk := j.RemainingInChunk()
	remaining := inChunk
	if rest := j.TotalEstimated - j.DeletedCount - inChunk; rest > 0 {
		remaining += rest
	}
	if remaining <= 0 {
		return "Almost done"
	}

	seconds := int(float64(remaining) * perDelete.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("~%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("~%dm", seconds/60)
	default:
		return fmt.Sprintf("~%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}
