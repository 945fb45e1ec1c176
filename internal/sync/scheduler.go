package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/channel-sync-manager/backend/internal/storage"
	"github.com/channel-sync-manager/backend/internal/storage/models"
	"github.com/channel-sync-manager/backend/internal/websocket"
)

// Scheduler manages periodic sync jobs, one per active connection.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	connections  *storage.ConnectionRepository
	broadcaster  *websocket.EventBroadcaster

	// Track cron jobs per connection
	jobs   map[string]cron.EntryID
	jobsMu gosync.RWMutex

	// At most one run per connection at a time. The orchestrator itself is
	// lock-free; this map is the external guarantee it relies on.
	inFlight   map[string]bool
	inFlightMu gosync.Mutex

	// Fallback when a connection carries no usable frequency
	defaultInterval time.Duration
}

// NewScheduler creates a sync scheduler.
func NewScheduler(
	orchestrator *Orchestrator,
	connections *storage.ConnectionRepository,
	hub *websocket.Hub,
	defaultIntervalMin int,
) *Scheduler {
	if defaultIntervalMin <= 0 {
		defaultIntervalMin = 60
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:            cron.New(),
		orchestrator:    orchestrator,
		connections:     connections,
		broadcaster:     broadcaster,
		jobs:            make(map[string]cron.EntryID),
		inFlight:        make(map[string]bool),
		defaultInterval: time.Duration(defaultIntervalMin) * time.Minute,
	}
}

// Start loads all active connections, schedules them, and begins the cron
// loop. A refresh job re-reads the connection table every 5 minutes so
// created, updated, and paused connections converge without a restart.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("Starting sync scheduler...")

	connections, err := s.connections.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		s.ScheduleConnection(conn)
	}

	s.cron.AddFunc("@every 5m", func() {
		s.refreshSchedules(context.Background())
	})

	s.cron.Start()
	log.Printf("Sync scheduler started with %d connections", len(connections))

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	log.Println("Stopping sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Sync scheduler stopped")
}

// ScheduleConnection adds or replaces a connection's sync job. Non-active
// connections are unscheduled instead.
func (s *Scheduler) ScheduleConnection(conn models.Connection) {
	if !conn.IsActive() {
		s.UnscheduleConnection(conn.ID)
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[conn.ID]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, conn.ID)
	}

	interval := time.Duration(conn.SyncFrequencyMinutes) * time.Minute
	if interval < time.Minute {
		interval = s.defaultInterval
	}
	spec := "@every " + interval.String()

	connID := conn.ID
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runSync(connID, models.TriggerScheduler)
	})
	if err != nil {
		log.Printf("Failed to schedule connection %s: %v", conn.ID, err)
		return
	}

	s.jobs[conn.ID] = entryID
	log.Printf("Scheduled connection %s (%s) every %s", conn.ID, conn.Platform, interval)
}

// UnscheduleConnection removes a connection's sync job.
func (s *Scheduler) UnscheduleConnection(connectionID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if entryID, exists := s.jobs[connectionID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, connectionID)
		log.Printf("Unscheduled connection %s", connectionID)
	}
}

// TriggerSync starts an immediate manual sync in the background.
func (s *Scheduler) TriggerSync(connectionID string) {
	go s.runSync(connectionID, models.TriggerManual)
}

// runSync executes one sync run under the in-flight guard and broadcasts
// the outcome.
func (s *Scheduler) runSync(connectionID, triggeredBy string) {
	if !s.markInFlight(connectionID) {
		log.Printf("Sync already running for connection %s, skipping", connectionID)
		return
	}
	defer s.clearInFlight(connectionID)

	ctx := context.Background()
	result, err := s.orchestrator.Run(ctx, connectionID, triggeredBy)
	if err != nil {
		log.Printf("Sync failed for connection %s: %v", connectionID, err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastSyncError(connectionID, err)
			if conn, getErr := s.connections.GetByID(ctx, connectionID); getErr == nil && conn != nil && !conn.IsActive() {
				s.broadcaster.BroadcastConnectionPaused(conn)
				s.UnscheduleConnection(connectionID)
			}
		}
		return
	}

	log.Printf("Sync completed for connection %s: %d events, %d created, %d updated, %d failed, %d conflicts",
		connectionID, result.EventsProcessed, result.ItemsCreated, result.ItemsUpdated,
		result.ItemsFailed, len(result.Conflicts))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSyncCompleted(result)
		for i := range result.Conflicts {
			s.broadcaster.BroadcastConflictDetected(&result.Conflicts[i])
		}
	}
}

func (s *Scheduler) markInFlight(connectionID string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if s.inFlight[connectionID] {
		return false
	}
	s.inFlight[connectionID] = true
	return true
}

func (s *Scheduler) clearInFlight(connectionID string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, connectionID)
}

// refreshSchedules reloads active connections from the database.
func (s *Scheduler) refreshSchedules(ctx context.Context) {
	connections, err := s.connections.ListActive(ctx)
	if err != nil {
		log.Printf("Failed to refresh sync schedules: %v", err)
		return
	}

	currentIDs := make(map[string]bool, len(connections))
	for _, conn := range connections {
		currentIDs[conn.ID] = true
		s.ScheduleConnection(conn)
	}

	s.jobsMu.Lock()
	for connID := range s.jobs {
		if !currentIDs[connID] {
			s.cron.Remove(s.jobs[connID])
			delete(s.jobs, connID)
			log.Printf("Removed schedule for connection %s (no longer active)", connID)
		}
	}
	s.jobsMu.Unlock()
}

// ScheduledConnections returns the currently scheduled connection IDs.
func (s *Scheduler) ScheduledConnections() []string {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

// NextRun returns the next scheduled run time for a connection, or nil when
// the connection is not scheduled.
func (s *Scheduler) NextRun(connectionID string) *time.Time {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	if entryID, exists := s.jobs[connectionID]; exists {
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}
