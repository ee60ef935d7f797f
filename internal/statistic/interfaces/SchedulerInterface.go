package interfaces

import (
	"context"
	"listenerd/internal/models"
)

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
	RunOnce(ctx context.Context) (*models.Snapshot, error)
}
