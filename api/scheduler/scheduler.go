package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/firtrack/fir-tracking-api/config"
	"github.com/firtrack/fir-tracking-api/databases"
	"github.com/firtrack/fir-tracking-api/lifecycle"
	templates "github.com/firtrack/fir-tracking-api/templates/html"
)

// Scheduler handles periodic background jobs for the FIR tracking system
type Scheduler struct {
	cron *cron.Cron
	FDB  databases.FirDatabase
	conf config.Config
}

// NewScheduler creates a new scheduler instance
func NewScheduler(fdb databases.FirDatabase, conf config.Config) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		FDB:  fdb,
		conf: conf,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Send the open-case digest daily at 7 AM UTC
	_, err := s.cron.AddFunc("0 7 * * *", s.sendDailyDigest)
	if err != nil {
		zap.S().Errorw("failed to register daily digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("FIR digest scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("FIR digest scheduler stopped")
}

// sendDailyDigest mails the admin a summary of open cases by status and
// priority
func (s *Scheduler) sendDailyDigest() {
	if s.conf.SendgridAPIKey == "" || s.conf.AdminDigestEmail == "" {
		zap.S().Debug("digest email not configured, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, err := s.buildDigestBody(ctx)
	if err != nil {
		zap.S().Errorw("failed to build digest", "error", err)
		return
	}

	subject := fmt.Sprintf("FIR daily digest for %s", time.Now().UTC().Format("2006-01-02"))
	from := mail.NewEmail("FIR Tracking", "no-reply@firtrack.app")
	to := mail.NewEmail("Admin", s.conf.AdminDigestEmail)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(s.conf.SendgridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send digest email", "error", err)
		return
	}
	zap.S().Infow("digest email sent", "status", resp.StatusCode)
}

func (s *Scheduler) buildDigestBody(ctx context.Context) (string, error) {
	var b strings.Builder

	open, err := s.FDB.CountDocuments(ctx, bson.M{"isClosed": false})
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "Open FIRs: %d\n\nBy status:\n", open)

	for _, status := range lifecycle.Statuses {
		if status == lifecycle.StatusClosed {
			continue
		}
		count, err := s.FDB.CountDocuments(ctx, bson.M{"status": status, "isClosed": false})
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  %s: %d\n", status, count)
	}

	b.WriteString("\nBy priority:\n")
	for _, priority := range lifecycle.Priorities {
		count, err := s.FDB.CountDocuments(ctx, bson.M{"priority": priority, "isClosed": false})
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  %s: %d\n", priority, count)
	}

	return b.String(), nil
}
