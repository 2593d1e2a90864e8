package jobs

import (
	"context"
	"log"
	"time"

	"github.com/districtone/backend/services"
)

// TeamSyncJob refreshes the FRC roster and the avatars of liked teams.
// Scheduled from main via cron.
type TeamSyncJob struct {
	Teams *services.TeamService
}

func (j *TeamSyncJob) Run() {
	log.Println("Running job: TeamSync...")
	ctx := context.Background()

	if err := j.Teams.SyncRoster(ctx); err != nil {
		log.Printf("🔥 Roster sync failed: %v", err)
		return
	}
	if err := j.Teams.SyncAvatars(ctx, time.Now().Year()); err != nil {
		log.Printf("🔥 Avatar sync failed: %v", err)
	}
}
