package bot

import (
	"log"

	"discord-vanish/vanish"

	"github.com/robfig/cron/v3"
)

var c *cron.Cron

// startScheduler starts the periodic job-state flush. The engine persists at
// chunk boundaries and on its own save interval; this flush bounds how much
// progress a hard kill can lose, and surfaces paused jobs awaiting resume.
func startScheduler(engine *vanish.Engine) {
	log.Println("Initializing scheduler...")
	c = cron.New()
	_, err := c.AddFunc("@every 1m", func() {
		engine.PersistAll()
		for _, snap := range engine.Snapshots() {
			if !snap.Running {
				log.Printf("Paused vanish job in channel %s awaiting resume (%d deleted of ~%d)",
					snap.ChannelID, snap.DeletedCount, snap.TotalEstimated)
			}
		}
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Println("Job persistence flush scheduled every minute.")
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
