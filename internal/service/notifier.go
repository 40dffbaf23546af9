package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gestorfit/personal-app/internal/repository"
)

// expiryWindow is how far ahead the sweep looks for plans about to expire.
const expiryWindow = 3 * 24 * time.Hour

// ExpiryNotifier periodically finds plan assignments nearing expiry and
// notifies their trainers. There is no de-duplication: a trainer keeps getting
// a reminder on every sweep until the plan is renewed or expires. Accepted
// at-least-once behavior for a daily, human-readable message.
type ExpiryNotifier struct {
	assignmentRepo repository.PlanAssignmentRepository
	notifications  NotificationService
	interval       time.Duration
	now            func() time.Time
}

// NewExpiryNotifier creates the notifier. A non-positive interval falls back
// to 24h.
func NewExpiryNotifier(
	assignmentRepo repository.PlanAssignmentRepository,
	notifications NotificationService,
	interval time.Duration,
) *ExpiryNotifier {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ExpiryNotifier{
		assignmentRepo: assignmentRepo,
		notifications:  notifications,
		interval:       interval,
		now:            time.Now,
	}
}

// Run sweeps once immediately, then on every interval tick until the context
// is cancelled. Intended to be launched as a goroutine from main.
func (n *ExpiryNotifier) Run(ctx context.Context) {
	log.Printf("Expiry notifier started (interval %s)", n.interval)

	if count, err := n.Sweep(ctx); err != nil {
		log.Printf("ERROR: expiry sweep failed: %v", err)
	} else if count > 0 {
		log.Printf("Expiry sweep: %d notification(s) sent", count)
	}

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry notifier stopping.")
			return
		case <-ticker.C:
			if count, err := n.Sweep(ctx); err != nil {
				log.Printf("ERROR: expiry sweep failed: %v", err)
			} else if count > 0 {
				log.Printf("Expiry sweep: %d notification(s) sent", count)
			}
		}
	}
}

// Sweep emits one notification per assignment expiring within the window.
// Returns the number of notifications attempted.
func (n *ExpiryNotifier) Sweep(ctx context.Context) (int, error) {
	now := n.now()
	assignments, err := n.assignmentRepo.FindExpiring(ctx, now, now.Add(expiryWindow))
	if err != nil {
		return 0, err
	}

	for _, assignment := range assignments {
		days := int(assignment.ExpiryDate.Sub(now).Hours() / 24)
		var message string
		switch {
		case days <= 0:
			message = "Seu plano vence hoje. Renove para manter seus alunos ativos."
		case days == 1:
			message = "Seu plano vence amanhã. Renove para manter seus alunos ativos."
		default:
			message = fmt.Sprintf("Seu plano vence em %d dias. Renove para manter seus alunos ativos.", days)
		}
		n.notifications.SendNotification(ctx, assignment.TrainerID, message)
	}
	return len(assignments), nil
}
