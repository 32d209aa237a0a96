package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventqr/internal/attendance"
	"eventqr/internal/config"
	"eventqr/internal/event"
	"eventqr/internal/queue"
	"eventqr/internal/store"
)

// Worker consumes scan audit messages and runs the periodic absentee sweep
// over events that have ended.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "eventqr:audit")
	}

	events := event.NewRepository(db.Client)
	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(db.Client, repo, events, cfg.AutoRegister)

	go sweepLoop(ctx, svc, cfg.SweepInterval, cfg.SweepLookback)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "scan_audit" {
			continue
		}

		var rec attendance.AuditRecord
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("bad audit message: %v", err)
			continue
		}
		if err := repo.InsertAudit(ctx, rec); err != nil {
			log.Printf("audit insert failed for %s/%d: %v", rec.StudentCode, rec.EventID, err)
			continue
		}
		log.Printf("audit: %s %s %s event=%d", rec.Staff, rec.Action, rec.StudentCode, rec.EventID)
	}

	log.Println("worker stopped")
}

// sweepLoop marks absentees for ended events on a fixed interval. The sweep
// only inserts missing rows, so overlapping runs are harmless.
func sweepLoop(ctx context.Context, svc *attendance.Service, interval, lookback time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepEnded(ctx, lookback, time.Now())
			if err != nil {
				log.Printf("absentee sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("absentee sweep marked %d students", n)
			}
		}
	}
}
