// Package audit records item actions to the database asynchronously.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded by Attach.
var trackedActions = map[string]bool{
	"item_used":      true,
	"equipped":       true,
	"unequipped":     true,
	"inventory_full": true,
}

// Entry holds one audit event to be logged.
type Entry struct {
	TraceID    string
	OwnerID    string
	Action     string
	InstanceID string
	TemplateID string
	Detail     interface{}
}

// Service logs audit entries asynchronously in batches.
type Service struct {
	db        *gorm.DB
	ch        chan *model.AuditLog
	stopCh    chan struct{}
	wg        sync.WaitGroup
	batchSize int
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:        db,
		ch:        make(chan *model.AuditLog, 1024),
		stopCh:    make(chan struct{}),
		batchSize: 100,
		interval:  2 * time.Second,
		logger:    logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry Entry) {
	var detail datatypes.JSON
	if entry.Detail != nil {
		b, err := json.Marshal(entry.Detail)
		if err != nil {
			svc.logger.Warn("audit detail encode failed", zap.String("action", entry.Action), zap.Error(err))
		} else {
			detail = datatypes.JSON(b)
		}
	}
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		OwnerID:    entry.OwnerID,
		Action:     entry.Action,
		InstanceID: entry.InstanceID,
		TemplateID: entry.TemplateID,
		Detail:     detail,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// Attach records s's item uses, equip changes and overflows. It returns a
// detach func.
func (svc *Service) Attach(s *player.Session) func() {
	return s.Watch("audit", func(n player.Notice) {
		if !trackedActions[n.Type] {
			return
		}
		svc.Log(Entry{
			OwnerID:    n.Owner,
			Action:     n.Type,
			InstanceID: n.InstanceID,
			TemplateID: n.TemplateID,
			Detail:     n,
		})
	})
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, svc.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Int("entries", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= svc.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
