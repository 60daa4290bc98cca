package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/klerio/helpdesk/internal/config"
	"github.com/klerio/helpdesk/internal/db"
	"github.com/klerio/helpdesk/internal/email"
	"github.com/klerio/helpdesk/internal/notifications"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	svc := notifications.NewService(notifications.NewRepo(gdb))

	smtp := email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// topology matches the publisher
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var ev notifications.Event
				if err := json.Unmarshal(d.Body, &ev); err != nil || ev.Kind == "" {
					log.Printf("worker=%d bad event: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleEvent(ctx, svc, smtp, ev); err != nil {
					log.Printf("worker=%d event %s failed cost=%s err=%v", workerID, ev.EventID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed event=%s err=%v", workerID, ev.EventID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleEvent(ctx context.Context, svc *notifications.Service, smtp email.SMTPConfig, ev notifications.Event) error {
	if _, err := svc.RecordEvent(ctx, ev); err != nil {
		return err
	}

	// Email the support inbox for fresh tickets/inquiries; delivery failures
	// are logged, never retried, and never fail the event.
	if smtp.Host != "" && (ev.Kind == notifications.KindNewTicket || ev.Kind == notifications.KindNewInquiry) {
		go func(ev notifications.Event) {
			body := ev.Message + "\n\nEntity: " + ev.EntityType + " #" + strconv.FormatInt(ev.EntityID, 10) + "\n"
			if err := email.SendText(smtp, smtp.From, ev.Title, body); err != nil {
				log.Printf("notification email failed event=%s err=%v", ev.EventID, err)
			}
		}(ev)
	}
	return nil
}
