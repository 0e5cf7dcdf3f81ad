package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/stx-labs/pox-data-api/errors"
	"github.com/stx-labs/pox-data-api/system"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Job is one asynchronous ingestion run. Do is the work itself and is not
// persisted; a restart leaves interrupted jobs in their last stored status.
type Job struct {
	ID        uuid.UUID              `json:"jobId" gorm:"primary_key;type:uuid;"`
	Type      string                 `json:"type"`
	Do        func() (string, error) `json:"-" gorm:"-"`
	Status    Status                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Result    string                 `json:"result"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	DeletedAt gorm.DeletedAt         `json:"-" gorm:"index"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) (err error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return
}

type WorkerPool struct {
	wg      *sync.WaitGroup
	jobChan chan *Job
	store   Store

	logger        *log.Logger
	systemService *system.Service
}

type WorkerPoolOption func(*WorkerPool)

func WithLogger(logger *log.Logger) WorkerPoolOption {
	return func(wp *WorkerPool) {
		wp.logger = logger
	}
}

// WithSystemService makes the pool reject new jobs while ingestion is paused.
func WithSystemService(svc *system.Service) WorkerPoolOption {
	return func(wp *WorkerPool) {
		wp.systemService = svc
	}
}

func NewWorkerPool(store Store, capacity uint, opts ...WorkerPoolOption) *WorkerPool {
	pool := &WorkerPool{
		wg:      &sync.WaitGroup{},
		jobChan: make(chan *Job, capacity),
		store:   store,
		logger:  log.StandardLogger(),
	}

	for _, opt := range opts {
		opt(pool)
	}

	pool.wg.Add(1)
	go pool.run()

	return pool
}

// AddJob schedules work on the pool. The returned job is already persisted
// and its status tells whether the work was accepted.
func (p *WorkerPool) AddJob(jobType string, do func() (string, error)) (*Job, error) {
	job := &Job{Type: jobType, Do: do, Status: Init}
	if err := p.store.InsertJob(job); err != nil {
		return nil, err
	}

	if p.systemService != nil && p.systemService.IsSyncPaused() {
		job.Status = Paused
		p.store.UpdateJob(job)
		return job, &errors.JobQueueFull{Err: fmt.Errorf("ingestion is paused")}
	}

	select {
	case p.jobChan <- job:
	default:
		job.Status = QueueFull
		p.store.UpdateJob(job)
		return job, &errors.JobQueueFull{Err: fmt.Errorf(job.Status.String())}
	}

	job.Status = Accepted
	p.store.UpdateJob(job)
	return job, nil
}

func (p *WorkerPool) Stop() {
	close(p.jobChan)
	p.wg.Wait()
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for job := range p.jobChan {
		if job == nil {
			return
		}
		p.process(job)
	}
}

func (p *WorkerPool) process(job *Job) {
	entry := p.logger.WithFields(log.Fields{
		"jobID": job.ID,
		"type":  job.Type,
	})
	entry.Info("Job started")

	result, err := job.Do()
	if err != nil {
		job.Status = Error
		job.Error = err.Error()
		p.store.UpdateJob(job)
		entry.WithFields(log.Fields{"error": err}).Warn("Job failed")
		return
	}

	job.Status = Complete
	job.Result = result
	p.store.UpdateJob(job)
	entry.Info("Job complete")
}
