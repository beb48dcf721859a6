package cleanup

import (
	"log"
	"time"

	"dispatch-backend/internal/repository"
)

// CleanupService periodically removes expired password reset tokens and
// prunes message logs past the retention window.
type CleanupService struct {
	userRepo     *repository.UserRepository
	messageRepo  *repository.MessageRepository
	interval     time.Duration
	logRetention time.Duration
	stopChan     chan bool
}

func NewCleanupService(userRepo *repository.UserRepository, messageRepo *repository.MessageRepository, interval, logRetention time.Duration) *CleanupService {
	return &CleanupService{
		userRepo:     userRepo,
		messageRepo:  messageRepo,
		interval:     interval,
		logRetention: logRetention,
		stopChan:     make(chan bool),
	}
}

// Start begins the cleanup service
func (s *CleanupService) Start() {
	log.Printf("Starting cleanup service (interval: %v, log retention: %v)", s.interval, s.logRetention)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run cleanup immediately on start
	s.runCleanup()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.stopChan:
			log.Println("Stopping cleanup service")
			return
		}
	}
}

// Stop stops the cleanup service
func (s *CleanupService) Stop() {
	s.stopChan <- true
}

func (s *CleanupService) runCleanup() {
	s.cleanupExpiredTokens()
	s.pruneOldLogs()
}

// cleanupExpiredTokens removes expired password reset tokens from the database
func (s *CleanupService) cleanupExpiredTokens() {
	count, err := s.userRepo.CleanupExpiredResetTokens()
	if err != nil {
		log.Printf("Error cleaning up expired reset tokens: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Cleaned up %d expired password reset tokens", count)
	}
}

// pruneOldLogs deletes message logs older than the retention window.
// A zero retention disables pruning.
func (s *CleanupService) pruneOldLogs() {
	if s.logRetention <= 0 {
		return
	}

	cutoff := time.Now().Add(-s.logRetention)
	count, err := s.messageRepo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Printf("Error pruning old message logs: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Pruned %d message logs older than %v", count, cutoff.Format(time.RFC3339))
	}
}
