package services

import (
	"context"
	"log"
	"sync"
	"time"

	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher sends push notifications on a small worker pool so
// timer callbacks and request handlers never block on FCM.
type NotificationDispatcher struct {
	pushProvider PushNotificationProvider
	fallback     func(n *notification.Notification)
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup

	// mu guards stopped. Dispatch holds it shared while queueing so Stop
	// cannot drain the queue underneath a pending send.
	mu      sync.RWMutex
	stopped bool
}

type DispatchJob struct {
	Notification *notification.Notification
	Tokens       []notification.DeviceToken
}

// NewNotificationDispatcher starts the workers. fallback receives every
// notification whose push delivery failed.
func NewNotificationDispatcher(provider PushNotificationProvider, fallback func(n *notification.Notification)) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		pushProvider: provider,
		fallback:     fallback,
		workers:      5,
		jobQueue:     make(chan *DispatchJob, 100),
		stopChan:     make(chan struct{}),
	}

	dispatcher.startWorkers()

	return dispatcher
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *NotificationDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		// stop wins over queued work; Stop hands the rest to the fallback
		select {
		case <-d.stopChan:
			return
		default:
		}

		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification
	err := d.pushProvider.SendPush(ctx, job.Tokens, notif.Title, notif.Body, notif.Data)
	if err != nil {
		log.Printf("Push failed for notification %s: %v", notif.ID, err)
		d.fallback(notif)
		return
	}

	metrics.NotificationsDelivered.WithLabelValues("push").Inc()
}

// Dispatch queues a push. A full or stopped queue goes straight to the
// fallback.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification, tokens []notification.DeviceToken) {
	job := &DispatchJob{
		Notification: notif,
		Tokens:       tokens,
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.fallback(notif)
		return
	}

	select {
	case d.jobQueue <- job:
		log.Printf("Notification %s queued for dispatch", notif.ID)
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue notification %s: queue full", notif.ID)
		d.fallback(notif)
	}
}

// Stop the dispatcher gracefully. Jobs still queued when the workers exit
// are handed to the fallback.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")

		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()

		close(d.stopChan)
		d.wg.Wait()

		drained := 0
		for {
			select {
			case job := <-d.jobQueue:
				d.fallback(job.Notification)
				drained++
				continue
			default:
			}
			break
		}
		log.Printf("Notification dispatcher stopped (%d queued notifications sent to fallback)", drained)
	})
}
