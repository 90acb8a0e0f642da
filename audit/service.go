package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kasuganosora/stalker/game/ai"
	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/model"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

type record struct {
	transition   *model.TransitionLog
	notification *model.NotificationLog
}

// Service persists agent transitions and contact notifications
// asynchronously in batches. Logging never blocks the simulation: when the
// queue is full entries are dropped with a warning.
type Service struct {
	db     *gorm.DB
	runID  string
	ch     chan record
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
// runID tags every row written by this process.
func New(db *gorm.DB, runID string, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		runID:  runID,
		ch:     make(chan record, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Attach subscribes the service to the transition and notification topics
// of b. The returned function detaches it.
func (svc *Service) Attach(b *bus.Bus) func() {
	unsubTransition := b.Subscribe(bus.TopicTransition, 100, func(_ context.Context, _ string, payload interface{}) {
		if t, ok := payload.(ai.Transition); ok {
			svc.LogTransition(t)
		}
	})
	unsubNotes := bus.NewNotifier(b).Subscribe(svc.LogNotification)
	return func() {
		unsubTransition()
		unsubNotes()
	}
}

// LogTransition enqueues a state change for async DB write.
func (svc *Service) LogTransition(t ai.Transition) {
	detail, _ := json.Marshal(map[string]interface{}{
		"position": t.Position,
	})
	svc.enqueue(record{transition: &model.TransitionLog{
		RunID:     svc.runID,
		AgentID:   t.AgentID,
		FromState: t.From.String(),
		ToState:   t.To.String(),
		Reason:    t.Reason,
		Tick:      t.Tick,
		SimTime:   t.Time,
		Detail:    datatypes.JSON(detail),
	}}, t.Reason)
}

// LogNotification enqueues a contact notification for async DB write.
func (svc *Service) LogNotification(n bus.Notification) {
	svc.enqueue(record{notification: &model.NotificationLog{
		RunID:   svc.runID,
		AgentID: n.AgentID,
		Topic:   n.Topic,
	}}, n.Topic)
}

func (svc *Service) enqueue(r record, what string) {
	select {
	case svc.ch <- r:
	default:
		svc.logger.Warn("audit channel full, dropping entry", zap.String("entry", what))
	}
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
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	transitions := make([]*model.TransitionLog, 0, batchSize)
	notes := make([]*model.NotificationLog, 0, batchSize)

	flush := func() {
		if len(transitions) > 0 {
			if err := svc.db.Create(&transitions).Error; err != nil {
				svc.logger.Error("transition batch write failed", zap.Error(err))
			}
			transitions = transitions[:0]
		}
		if len(notes) > 0 {
			if err := svc.db.Create(&notes).Error; err != nil {
				svc.logger.Error("notification batch write failed", zap.Error(err))
			}
			notes = notes[:0]
		}
	}
	add := func(r record) {
		if r.transition != nil {
			transitions = append(transitions, r.transition)
		}
		if r.notification != nil {
			notes = append(notes, r.notification)
		}
		if len(transitions)+len(notes) >= batchSize {
			flush()
		}
	}

	for {
		select {
		case r := <-svc.ch:
			add(r)
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case r := <-svc.ch:
					add(r)
				default:
					flush()
					return
				}
			}
		}
	}
}
