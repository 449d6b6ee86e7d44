package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogName is the file, inside the log directory, that receives one
// line per report event.
const AuditLogName = "reports.log"

// StartReportConsumer connects to RabbitMQ, declares the report.lifecycle
// queue (durable), and consumes messages until ctx is cancelled. Each
// message is appended to <logDir>/reports.log in a single-line,
// human-friendly format. Broker failures trigger a reconnect with
// exponential backoff; a message that cannot be handled is rejected
// without requeue so the consumer keeps going.
func StartReportConsumer(ctx context.Context, url, logDir string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("report-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("report-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("report-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(ReportQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ReportQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(logDir, d.Body); err != nil {
				log.Printf("report-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends its audit line.
func HandleMessage(logDir string, body []byte) error {
	var ev ReportEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReportID == "" {
		return errors.New("event without type or report_id")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, AuditLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated log line.
// Free-text values are quoted so embedded newlines or quotes cannot split
// or forge a line.
func FormatAuditLine(ev ReportEvent) string {
	needs := ev.NeedsList
	if needs == nil {
		needs = []string{}
	}
	location := ev.Province + " / " + ev.District + " / " + ev.DSDivision
	return fmt.Sprintf("[%s] %s | report_id=%q | farmer_id=%q | actor=%q(%s) | location=%q | damage=%q | severity=%q | urgent=%t | status=%s | needs=%q\n",
		token(ev.OccurredAt), token(string(ev.Type)), ev.ReportID, ev.FarmerID, ev.ActorUID, token(ev.ActorRole),
		location, ev.DamageType, ev.Severity, ev.Urgent, token(ev.Status), needs)
}

// token leaves short vocabulary values bare and quotes anything else.
func token(s string) string {
	for _, r := range s {
		if r <= ' ' || r == '"' || r == '|' || r > '~' {
			return strconv.Quote(s)
		}
	}
	return s
}
