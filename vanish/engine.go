package vanish

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"discord-vanish/models"
	"discord-vanish/search"
)

// Caller-facing errors, rejected at the API boundary before any job loop
// is involved.
var (
	ErrAlreadyRunning = errors.New("a vanish job is already running in this channel")
	ErrNotFound       = errors.New("no vanish job for this channel")
	ErrNoMatches      = errors.New("no messages match the filter")
)

// Deleter abstracts the deletion executor.
type Deleter interface {
	Delete(channelID, messageID string) Outcome
}

// Fetcher abstracts the paginated search fetcher.
type Fetcher interface {
	FetchUpTo(guildID string, base search.Query, target int, progress search.Progress) []string
	EstimateTotal(guildID string, base search.Query) int
}

// Store abstracts the durable job store.
type Store interface {
	Save(job *models.VanishJob) error
	Delete(channelID string) error
}

// Options tunes the engine's pacing and persistence cadence.
type Options struct {
	ChunkSize         int           // message ids fetched per chunk
	DeleteDelay       time.Duration // pacing between deletes
	IndexRefreshDelay time.Duration // wait before re-fetching after a finished chunk
	SaveInterval      time.Duration // persistence cadence during deletion
	StatusInterval    time.Duration // notification cadence during deletion
}

// DefaultOptions returns the pacing the deletion and search endpoints are
// known to tolerate.
func DefaultOptions() Options {
	return Options{
		ChunkSize:         2000,
		DeleteDelay:       time.Second,
		IndexRefreshDelay: 5 * time.Second,
		SaveInterval:      30 * time.Second,
		StatusInterval:    5 * time.Second,
	}
}

// Target identifies whose messages a job removes.
type Target struct {
	UserID   string
	UserName string
}

// Snapshot is a point-in-time read of a job's progress.
type Snapshot struct {
	GuildID         string
	ChannelID       string
	TargetUserID    string
	TargetUserName  string
	StartedAt       string
	DeletedCount    int
	FailedCount     int
	TotalEstimated  int
	ChunksCompleted int
	ChunkIndex      int
	ChunkLength     int
	ProgressPercent float64
	ETA             string
	Running         bool
}

// job pairs a durable record with the lock guarding it. The run loop is the
// only writer while the job runs; Status, Cancel and the persistence flush
// read concurrently.
type job struct {
	mu     sync.Mutex
	record *models.VanishJob
}

// Engine owns the registry of vanish jobs, at most one per channel, and
// drives each running job in its own goroutine.
type Engine struct {
	fetcher  Fetcher
	deleter  Deleter
	store    Store
	notifier Notifier
	opts     Options

	mu   sync.Mutex
	jobs map[string]*job

	wg    sync.WaitGroup
	sleep func(time.Duration)
	now   func() time.Time
}

// NewEngine creates an engine. A nil notifier discards progress updates.
func NewEngine(fetcher Fetcher, deleter Deleter, store Store, notifier Notifier, opts Options) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultOptions().ChunkSize
	}
	return &Engine{
		fetcher:  fetcher,
		deleter:  deleter,
		store:    store,
		notifier: notifier,
		opts:     opts,
		jobs:     make(map[string]*job),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Restore registers persisted job records as paused, awaiting an explicit
// resume. Called once at startup with the store's contents.
func (e *Engine) Restore(records []*models.VanishJob) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range records {
		rec.IsRunning = false // a restart never leaves a job silently running
		e.jobs[rec.ChannelID] = &job{record: rec}
		log.Printf("[vanish] restored paused job for channel %s (%d deleted of ~%d)",
			rec.ChannelID, rec.DeletedCount, rec.TotalEstimated)
	}
}

// vanishQuery builds the search filter a job deletes against.
func vanishQuery(rec *models.VanishJob) search.Query {
	return search.Query{
		AuthorIDs:  []string{rec.TargetUserID},
		ChannelIDs: []string{rec.ChannelID},
		SortBy:     search.SortByTimestamp,
		SortOrder:  search.SortOrderDesc,
	}
}

// Start creates and launches a job deleting the target's messages in the
// channel. It fails with ErrAlreadyRunning if a running job exists for the
// channel, and with ErrNoMatches if the filter matches nothing; a stale
// paused job is discarded by a fresh start.
func (e *Engine) Start(guildID, channelID string, target Target) (Snapshot, error) {
	e.mu.Lock()
	if existing, ok := e.jobs[channelID]; ok {
		existing.mu.Lock()
		running := existing.record.IsRunning
		existing.mu.Unlock()
		if running {
			e.mu.Unlock()
			return Snapshot{}, ErrAlreadyRunning
		}
		delete(e.jobs, channelID)
		e.mu.Unlock()
		if err := e.store.Delete(channelID); err != nil {
			log.Printf("[vanish] failed to drop stale job record for channel %s: %v", channelID, err)
		}
	} else {
		e.mu.Unlock()
	}

	rec := &models.VanishJob{
		ChannelID:      channelID,
		GuildID:        guildID,
		TargetUserID:   target.UserID,
		TargetUserName: target.UserName,
		StartedAt:      e.now().UTC().Format(time.RFC3339),
	}

	total := e.fetcher.EstimateTotal(guildID, vanishQuery(rec))
	if total == 0 {
		return Snapshot{}, ErrNoMatches
	}
	rec.TotalEstimated = total
	rec.IsRunning = true

	j := &job{record: rec}
	e.mu.Lock()
	if _, ok := e.jobs[channelID]; ok {
		// A concurrent start won the race while we were estimating.
		e.mu.Unlock()
		return Snapshot{}, ErrAlreadyRunning
	}
	e.jobs[channelID] = j
	e.mu.Unlock()

	e.persist(j)
	log.Printf("[vanish] channel %s: starting job for %s (~%d messages)", channelID, target.UserName, total)

	e.wg.Add(1)
	go e.run(j)

	return e.snapshot(j), nil
}

// Status reads the current progress of the channel's job.
func (e *Engine) Status(channelID string) (Snapshot, error) {
	j, ok := e.lookup(channelID)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return e.snapshot(j), nil
}

// Cancel requests cooperative cancellation of the channel's job. A running
// job observes the flag on its next loop iteration; a paused job has no
// loop to observe it, so its record is removed immediately.
func (e *Engine) Cancel(channelID string) error {
	j, ok := e.lookup(channelID)
	if !ok {
		return ErrNotFound
	}

	j.mu.Lock()
	j.record.IsCancelled = true
	running := j.record.IsRunning
	j.mu.Unlock()

	if !running {
		e.remove(channelID)
		log.Printf("[vanish] channel %s: cancelled paused job", channelID)
		return nil
	}

	e.persist(j)
	return nil
}

// Resume restarts a paused job at the exact chunk position it left off at.
// Already-processed ids are never re-deleted and the current chunk is not
// re-fetched.
func (e *Engine) Resume(channelID string) (Snapshot, error) {
	j, ok := e.lookup(channelID)
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	j.mu.Lock()
	if j.record.IsRunning {
		j.mu.Unlock()
		return Snapshot{}, ErrAlreadyRunning
	}
	j.record.IsRunning = true
	j.record.IsCancelled = false
	j.mu.Unlock()

	log.Printf("[vanish] channel %s: resuming job", channelID)
	e.wg.Add(1)
	go e.run(j)

	return e.snapshot(j), nil
}

// Snapshots lists a snapshot of every registered job.
func (e *Engine) Snapshots() []Snapshot {
	e.mu.Lock()
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.Unlock()

	snaps := make([]Snapshot, 0, len(jobs))
	for _, j := range jobs {
		snaps = append(snaps, e.snapshot(j))
	}
	return snaps
}

// PersistAll flushes every registered job to the store. Called by the
// scheduler on an interval and as part of shutdown.
func (e *Engine) PersistAll() {
	e.mu.Lock()
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}
	e.mu.Unlock()

	for _, j := range jobs {
		e.persist(j)
	}
}

// Shutdown pauses every running job, waits for their loops to park, and
// flushes final state so a later process can resume them. Persistence is
// the last thing done on the clean shutdown path.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	for _, j := range e.jobs {
		j.mu.Lock()
		j.record.IsRunning = false
		j.mu.Unlock()
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.PersistAll()
	log.Println("[vanish] engine shut down, job state flushed")
}

// run drives one job until it completes, is cancelled, or is paused. All
// waits are plain sleeps; cancellation is a flag observed once per
// iteration, so in-flight calls always complete.
func (e *Engine) run(j *job) {
	defer e.wg.Done()

	lastStatus := e.now()
	lastSave := e.now()

	for {
		j.mu.Lock()
		rec := j.record
		if rec.IsCancelled {
			j.mu.Unlock()
			e.finish(j, true)
			return
		}
		if !rec.IsRunning {
			// Paused externally (shutdown); keep the record for resume.
			j.mu.Unlock()
			e.persist(j)
			return
		}

		if rec.ChunkIndex >= len(rec.CurrentChunk) {
			guildID, channelID := rec.GuildID, rec.ChannelID
			chunkNum := rec.ChunksCompleted + 1
			firstChunk := rec.ChunksCompleted == 0
			q := vanishQuery(rec)
			j.mu.Unlock()

			// Deletions take a while to leave the search index; fetching
			// again immediately would return ids that are already gone.
			if !firstChunk {
				e.notifier.Publish(channelID, "⏳ Waiting for the search index to refresh...")
				e.sleep(e.opts.IndexRefreshDelay)
			}

			chunk := e.fetcher.FetchUpTo(guildID, q, e.opts.ChunkSize, func(found, page int) {
				e.notifier.Publish(channelID, fmt.Sprintf(
					"🔍 Fetching chunk %d: found %d/%d messages (page %d)",
					chunkNum, found, e.opts.ChunkSize, page))
			})

			j.mu.Lock()
			if rec.IsCancelled {
				j.mu.Unlock()
				e.finish(j, true)
				return
			}
			if len(chunk) == 0 {
				// No more matches: the job is complete.
				rec.IsRunning = false
				j.mu.Unlock()
				e.finish(j, false)
				return
			}
			rec.CurrentChunk = chunk
			rec.ChunkIndex = 0
			rec.ChunksCompleted++
			j.mu.Unlock()

			e.persist(j)
			log.Printf("[vanish] channel %s: starting chunk %d with %d messages", channelID, chunkNum, len(chunk))
			continue
		}

		msgID := rec.CurrentChunk[rec.ChunkIndex]
		channelID := rec.ChannelID
		j.mu.Unlock()

		outcome := e.deleter.Delete(channelID, msgID)

		j.mu.Lock()
		if outcome == Denied {
			rec.FailedCount++
		} else {
			rec.DeletedCount++
		}
		rec.ChunkIndex++
		j.mu.Unlock()

		if e.now().Sub(lastStatus) >= e.opts.StatusInterval {
			e.notifier.Publish(channelID, e.progressLine(j))
			lastStatus = e.now()
		}
		if e.now().Sub(lastSave) >= e.opts.SaveInterval {
			e.persist(j)
			lastSave = e.now()
		}

		e.sleep(e.opts.DeleteDelay)
	}
}

// finish publishes the final status and removes the job from the registry
// and the store.
func (e *Engine) finish(j *job, cancelled bool) {
	j.mu.Lock()
	rec := j.record
	rec.IsRunning = false
	channelID := rec.ChannelID
	name := rec.TargetUserName
	deleted, failed := rec.DeletedCount, rec.FailedCount
	j.mu.Unlock()

	var final string
	if cancelled {
		final = fmt.Sprintf("⚠️ Vanish cancelled — deleted %d messages from %s.", deleted, name)
	} else {
		final = fmt.Sprintf("✅ Vanish complete — deleted %d messages from %s.", deleted, name)
		if failed > 0 {
			final += fmt.Sprintf(" (%d failed)", failed)
		}
	}
	e.notifier.Publish(channelID, final)

	e.remove(channelID)
	log.Printf("[vanish] channel %s: job finished (deleted=%d failed=%d cancelled=%v)",
		channelID, deleted, failed, cancelled)
}

func (e *Engine) lookup(channelID string) (*job, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[channelID]
	return j, ok
}

func (e *Engine) remove(channelID string) {
	e.mu.Lock()
	delete(e.jobs, channelID)
	e.mu.Unlock()
	if err := e.store.Delete(channelID); err != nil {
		log.Printf("[vanish] failed to remove job record for channel %s: %v", channelID, err)
	}
}

func (e *Engine) persist(j *job) {
	j.mu.Lock()
	rec := *j.record
	j.mu.Unlock()
	if err := e.store.Save(&rec); err != nil {
		log.Printf("[vanish] failed to persist job for channel %s: %v", rec.ChannelID, err)
	}
}

func (e *Engine) snapshot(j *job) Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec := j.record
	return Snapshot{
		GuildID:         rec.GuildID,
		ChannelID:       rec.ChannelID,
		TargetUserID:    rec.TargetUserID,
		TargetUserName:  rec.TargetUserName,
		StartedAt:       rec.StartedAt,
		DeletedCount:    rec.DeletedCount,
		FailedCount:     rec.FailedCount,
		TotalEstimated:  rec.TotalEstimated,
		ChunksCompleted: rec.ChunksCompleted,
		ChunkIndex:      rec.ChunkIndex,
		ChunkLength:     len(rec.CurrentChunk),
		ProgressPercent: rec.ProgressPercent(),
		ETA:             rec.FormatETA(e.opts.DeleteDelay),
		Running:         rec.IsRunning,
	}
}

func (e *Engine) progressLine(j *job) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec := j.record
	return fmt.Sprintf("🗑️ Vanishing %s — deleted %d (%.1f%%), ETA %s [chunk %d: %d/%d]",
		rec.TargetUserName, rec.DeletedCount, rec.ProgressPercent(),
		rec.FormatETA(e.opts.DeleteDelay), rec.ChunksCompleted, rec.ChunkIndex, len(rec.CurrentChunk))
}
