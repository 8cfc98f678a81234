package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// ErrSyncInFlight is returned when a cycle is requested while one is
// already running. Only one cycle runs at a time.
var ErrSyncInFlight = errors.New("sync cycle already running")

// Orchestrator sequences push-then-pull cycles. Cycles fire from the
// periodic timer, from explicit triggers after local mutations or user
// request, and from offline-to-online transitions.
type Orchestrator struct {
	push     *PushEngine
	pull     *PullEngine
	probe    config.ConnectivityProbe
	logger   *logrus.Logger
	interval time.Duration

	mu        stdsync.Mutex
	state     State
	lastError string
	inFlight  bool

	trigger chan string
	stop    chan struct{}
	done    chan struct{}
}

func NewOrchestrator(api remote.API, probe config.ConnectivityProbe) *Orchestrator {
	return &Orchestrator{
		push:     NewPushEngine(api),
		pull:     NewPullEngine(api),
		probe:    probe,
		logger:   config.GetLogger(),
		interval: time.Duration(intFromEnv("SYNC_INTERVAL_SECONDS", 300)) * time.Second,
		state:    StateIdle,
		trigger:  make(chan string, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (o *Orchestrator) Start() {
	go o.loop()
}

func (o *Orchestrator) Stop() {
	close(o.stop)
	<-o.done
}

func (o *Orchestrator) loop() {
	defer close(o.done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	connTicker := time.NewTicker(time.Duration(intFromEnv("SYNC_CONN_CHECK_SECONDS", 30)) * time.Second)
	defer connTicker.Stop()

	wasOnline := o.probe.IsOnline(context.Background())
	for {
		select {
		case <-o.stop:
			return
		case reason := <-o.trigger:
			o.runCycle(reason)
		case <-ticker.C:
			o.runCycle(models.SyncTriggeredTimer)
		case <-connTicker.C:
			online := o.probe.IsOnline(context.Background())
			if online && !wasOnline {
				o.TriggerSync(models.SyncTriggeredReconnect)
			}
			wasOnline = online
		}
	}
}

// TriggerSync requests a cycle without blocking the caller. A trigger
// arriving while one is already queued collapses into it.
func (o *Orchestrator) TriggerSync(reason string) bool {
	select {
	case o.trigger <- reason:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) runCycle(reason string) {
	if err := o.RunCycle(context.Background(), reason); err != nil && !errors.Is(err, ErrSyncInFlight) {
		config.LogError(o.logger, "sync", "Orchestrator.runCycle", reason, nil, err)
	}
}

// RunCycle executes one push-then-pull pass. When the remote service is
// unreachable the cycle is a no-op and the engine stays idle; queued
// mutations wait for the reconnect trigger.
func (o *Orchestrator) RunCycle(ctx context.Context, reason string) error {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return ErrSyncInFlight
	}
	o.inFlight = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if !o.probe.IsOnline(ctx) {
		o.setState(StateIdle, "")
		o.logger.WithFields(logrus.Fields{
			"module":  "sync",
			"trigger": reason,
		}).Debug("sync skipped, offline")
		return nil
	}

	o.setState(StateSyncing, "")
	run, err := models.CreateSyncRun(ctx, reason)
	if err != nil {
		o.setState(StateError, err.Error())
		return err
	}

	started := time.Now()
	pushed, pushErrs := o.push.Run(ctx, run)
	pulled, pullErrs := o.pull.Run(ctx, run)
	errCount := pushErrs + pullErrs

	status := models.SyncRunStatusSuccess
	switch {
	case errCount > 0 && pushed+pulled > 0:
		status = models.SyncRunStatusPartial
	case errCount > 0:
		status = models.SyncRunStatusFailed
	}

	statsJSON, _ := json.Marshal(map[string]int{
		"pushed":      pushed,
		"pulled":      pulled,
		"push_errors": pushErrs,
		"pull_errors": pullErrs,
	})
	if err := models.FinishSyncRun(ctx, run, status, pushed, pulled, errCount, statsJSON); err != nil {
		config.LogError(o.logger, "sync", "Orchestrator.RunCycle", "finish run", run.ID, err)
	}
	if err := models.TouchSyncState(ctx, time.Now(), errCount == 0); err != nil {
		config.LogError(o.logger, "sync", "Orchestrator.RunCycle", "touch state", nil, err)
	}

	if errCount > 0 {
		o.setState(StateError, fmt.Sprintf("%d record(s) failed in last cycle", errCount))
	} else {
		o.setState(StateIdle, "")
	}

	o.logger.WithFields(logrus.Fields{
		"module":   "sync",
		"trigger":  reason,
		"status":   status,
		"pushed":   pushed,
		"pulled":   pulled,
		"errors":   errCount,
		"duration": time.Since(started).String(),
	}).Info("sync cycle finished")
	return nil
}

func (o *Orchestrator) setState(state State, lastError string) {
	o.mu.Lock()
	o.state = state
	o.lastError = lastError
	o.mu.Unlock()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

type StatusReport struct {
	State             State      `json:"state"`
	LastError         string     `json:"last_error,omitempty"`
	Online            bool       `json:"online"`
	PendingCount      int64      `json:"pending_count"`
	FailedCount       int64      `json:"failed_count"`
	DeviceId          string     `json:"device_id"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
}

func (o *Orchestrator) Status(ctx context.Context) (*StatusReport, error) {
	o.mu.Lock()
	report := StatusReport{
		State:     o.state,
		LastError: o.lastError,
	}
	o.mu.Unlock()

	report.Online = o.probe.IsOnline(ctx)

	var err error
	if report.PendingCount, err = models.PendingSyncCount(ctx); err != nil {
		return nil, err
	}
	if report.FailedCount, err = models.FailedSyncCount(ctx); err != nil {
		return nil, err
	}
	state, err := models.GetSyncState(ctx)
	if err != nil {
		return nil, err
	}
	report.DeviceId = state.DeviceId
	report.LastSyncAt = state.LastSyncAt
	report.LastSuccessSyncAt = state.LastSuccessSyncAt
	return &report, nil
}
