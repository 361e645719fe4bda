package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRoundScheduler runs the time-triggered round maintenance: an hourly
// sweep that locks expired rounds and rolls the week over once it has ended.
// Correctness never depends on it since every read path locks lazily; it
// only keeps transitions from waiting on the next request.
func (s *RoundService) StartRoundScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[scheduler] failed to create scheduler: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			rolled, err := s.RolloverIfDue(time.Now())
			if err != nil {
				log.Printf("[scheduler] round maintenance failed: %v", err)
				return
			}
			if rolled {
				log.Printf("[scheduler] weekly rollover completed")
			}
		}),
	)
	if err != nil {
		log.Printf("[scheduler] failed to schedule round maintenance: %v", err)
	}
}
