// Package scheduler replays stored workflows on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/replaykit/replaykit/pkg/execution"
)

// Entry binds one workflow to a cron expression.
type Entry struct {
	CronExpr   string
	WorkflowID string
	Parameters map[string]string
}

type Scheduler struct {
	engine  *execution.Engine
	cron    *cron.Cron
	entries []Entry
}

func NewScheduler(engine *execution.Engine) *Scheduler {
	return &Scheduler{
		engine: engine,
		cron:   cron.New(),
	}
}

// Add registers a workflow replay schedule. Fails on an invalid cron
// expression or empty workflow ID.
func (s *Scheduler) Add(entry Entry) error {
	if entry.WorkflowID == "" {
		return errors.New("schedule entry requires a workflow ID")
	}

	logger := log.WithFields(log.Fields{
		"module":      "scheduler",
		"workflow_id": entry.WorkflowID,
		"cron":        entry.CronExpr,
	})

	_, err := s.cron.AddFunc(entry.CronExpr, func() {
		logger.Info("Scheduled replay starting")

		execution, err := s.engine.Execute(context.Background(), entry.WorkflowID, entry.Parameters)
		if err != nil {
			logger.Errorf("Scheduled replay failed: %v", err)

			return
		}

		logger.Infof("Scheduled replay completed (execution ID: %s)", execution.ID)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", entry.CronExpr, err)
	}

	s.entries = append(s.entries, entry)

	return nil
}

// Start begins firing schedules in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; running replays are allowed to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries returns the registered schedule entries.
func (s *Scheduler) Entries() []Entry {
	result := make([]Entry, len(s.entries))
	copy(result, s.entries)

	return result
}
