package worker

import (
	"context"
	"log"
	"time"

	"planvite/models"
	"planvite/utils"

	"gorm.io/gorm"
)

// maxSendAttempts is how many times a queued invitation is retried before it
// is marked failed for good.
const maxSendAttempts = 3

type InvitationWorker struct {
	DB     *gorm.DB
	Mailer *utils.InviteMailer
	Logger *log.Logger
}

func NewInvitationWorker(db *gorm.DB, mailer *utils.InviteMailer, logger *log.Logger) *InvitationWorker {
	return &InvitationWorker{
		DB:     db,
		Mailer: mailer,
		Logger: logger,
	}
}

func (iw *InvitationWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	iw.Logger.Println("Invitation worker started")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			iw.Logger.Println("Invitation worker shutting down...")
			return
		case <-ticker.C:
			iw.processQueuedInvitations(ctx)
		}
	}
}

func (iw *InvitationWorker) processQueuedInvitations(ctx context.Context) {
	var queued []models.Invitation
	err := iw.DB.WithContext(ctx).
		Where("status = ? AND attempts < ?", models.InvitationQueued, maxSendAttempts).
		Order("created_at ASC").
		Limit(50).
		Find(&queued).Error
	if err != nil {
		iw.Logger.Printf("Error fetching queued invitations: %v", err)
		return
	}

	for i := range queued {
		if ctx.Err() != nil {
			return
		}
		if err := iw.sendInvitation(&queued[i]); err != nil {
			iw.Logger.Printf("Error sending invitation %d: %v", queued[i].ID, err)
		}
	}
}

func (iw *InvitationWorker) sendInvitation(inv *models.Invitation) error {
	var guest models.Guest
	if err := iw.DB.First(&guest, inv.GuestID).Error; err != nil {
		return iw.markFailed(inv, "guest no longer exists")
	}

	var event models.Event
	if err := iw.DB.First(&event, inv.EventID).Error; err != nil {
		return iw.markFailed(inv, "event no longer exists")
	}
	if event.Status == "canceled" {
		return iw.markFailed(inv, "event was canceled")
	}

	var tmpl models.InvitationTemplate
	if err := iw.DB.Unscoped().First(&tmpl, inv.TemplateID).Error; err != nil {
		return iw.markFailed(inv, "template no longer exists")
	}

	// Each guest's pending RSVP row carries the public response token
	var rsvp models.RSVP
	if err := iw.DB.Where("guest_id = ? AND event_id = ?", inv.GuestID, inv.EventID).First(&rsvp).Error; err != nil {
		return iw.markFailed(inv, "guest has no RSVP row")
	}

	inv.Attempts++
	if err := iw.Mailer.SendInvitation(inv, &guest, &event, &tmpl, rsvp.ResponseToken); err != nil {
		msg := err.Error()
		inv.LastError = &msg
		if inv.Attempts >= maxSendAttempts {
			inv.Status = models.InvitationFailed
		}
		if saveErr := iw.DB.Save(inv).Error; saveErr != nil {
			return saveErr
		}
		return err
	}

	now := time.Now()
	inv.Status = models.InvitationSent
	inv.SentAt = &now
	inv.LastError = nil
	return iw.DB.Save(inv).Error
}

func (iw *InvitationWorker) markFailed(inv *models.Invitation, reason string) error {
	inv.Status = models.InvitationFailed
	inv.LastError = &reason
	return iw.DB.Save(inv).Error
}
