package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"communityprojects/internal/engine"
	"communityprojects/internal/models"
	"communityprojects/internal/node"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Projector writes engine events into the postgres read model
type Projector struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewProjector(db *gorm.DB, logger logrus.FieldLogger) *Projector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Projector{db: db, log: logger.WithField("module", "projector")}
}

// Handle is the queue consumer callback. Messages that cannot be decoded are
// logged and dropped; storage errors are returned so the message is requeued.
func (p *Projector) Handle(body []byte) error {
	var env node.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		p.log.WithError(err).Error("dropping malformed message")
		return nil
	}
	if _, err := env.Event(); err != nil {
		p.log.WithFields(logrus.Fields{
			"message_id": env.ID,
			"name":       env.Name,
			"error":      err.Error(),
		}).Error("dropping undecodable event")
		return nil
	}
	return p.Apply(env)
}

// Apply records env and folds it into the project row. Envelopes already
// applied are skipped.
func (p *Projector) Apply(env node.Envelope) error {
	ev, err := env.Event()
	if err != nil {
		return err
	}
	payload, err := models.JSONMapFrom(env.Payload)
	if err != nil {
		return fmt.Errorf("decode payload of %s: %w", env.ID, err)
	}
	create, updates := projectUpdates(env.Height, ev)

	return p.db.Transaction(func(tx *gorm.DB) error {
		record := models.ProjectEvent{
			MessageID: env.ID,
			ProjectID: uint32(env.ProjectID),
			Name:      env.Name,
			Height:    uint64(env.Height),
			Payload:   payload,
			EmittedAt: env.Emitted,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).Create(&record)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			p.log.WithField("message_id", env.ID).Debug("duplicate event skipped")
			return nil
		}

		if create != nil {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(create).Error; err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			err := tx.Model(&models.ProjectRecord{}).
				Where("project_id = ?", uint32(env.ProjectID)).
				Updates(updates).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// projectUpdates maps an event onto the project row: either a row to create
// or the columns to update.
func projectUpdates(height engine.BlockNumber, ev engine.Event) (*models.ProjectRecord, map[string]interface{}) {
	h := uint64(height)
	updates := map[string]interface{}{}

	switch e := ev.(type) {
	case engine.ProjectListed:
		return &models.ProjectRecord{
			ProjectID:           uint32(e.ProjectID),
			Owner:               string(e.Seller),
			Status:              models.ProjectStatusListed,
			Price:               uint64(e.Price),
			Duration:            e.Duration,
			Milestones:          e.Milestones,
			RemainingMilestones: e.Milestones,
			NftTypes:            e.NftTypes,
			LastHeight:          h,
		}, nil
	case engine.NftBought:
		updates["project_balance"] = uint64(e.ProjectBalance)
	case engine.TokenBonded:
		updates["project_balance"] = uint64(e.ProjectBalance)
		updates["bonding_balance"] = uint64(e.BondingBalance)
	case engine.ProjectLaunched:
		launched := uint64(e.Launching)
		updates["status"] = models.ProjectStatusOngoing
		updates["launched_at"] = &launched
	case engine.MilestoneRejected:
		updates["strikes"] = e.Strikes
	case engine.FundsDestributed:
		updates["remaining_milestones"] = e.RemainingMilestones
		updates["strikes"] = uint8(0)
		updates["paid_out"] = gorm.Expr("paid_out + ?", uint64(e.Stable)+uint64(e.Native))
		if e.Native > 0 {
			updates["bonding_balance"] = gorm.Expr("bonding_balance - ?", uint64(e.Native))
		}
	case engine.ProjectDeleted:
		status := models.ProjectStatusSucceeded
		if !e.Success {
			status = models.ProjectStatusFailed
		}
		updates["status"] = status
		updates["ended_at"] = &h
		updates["remaining_percentage"] = uint32(e.RemainingPercentage)
	case engine.TokenRefunded:
		updates["refunded"] = gorm.Expr("refunded + ?", uint64(e.Amount))
	default:
		// ballot and schedule events only go to the event log
		return nil, nil
	}

	updates["last_height"] = h
	return nil, updates
}

// DeadLetterLogger mirrors failed tick steps into system_logs
func DeadLetterLogger(db *gorm.DB, logger logrus.FieldLogger) func(engine.DeadLetter) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(dl engine.DeadLetter) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		entry := models.SystemLog{
			ProjectID:  uint(dl.ProjectID),
			Level:      "ERROR",
			Message:    "tick step failed, project may be stuck",
			Module:     "community_projects",
			ErrorStack: dl.Error,
			Meta: models.JSONMap{
				"step":   dl.Step,
				"height": uint64(dl.Height),
			},
		}
		if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
			logger.WithFields(logrus.Fields{
				"project_id": dl.ProjectID,
				"step":       dl.Step,
				"error":      err.Error(),
			}).Error("failed to store dead letter")
		}
	}
}
