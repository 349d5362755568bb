package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/labourhub/adminauth/pkg/jwtx"
	"github.com/labourhub/adminauth/pkg/slogx"

	"github.com/labourhub/adminauth/internal/admin/domain"
	"github.com/labourhub/adminauth/internal/admin/store"
)

// EmailMessage is one outbound email.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// SMSMessage is one outbound text message.
type SMSMessage struct {
	To   string
	Body string
}

// Notifier delivers messages over external channels. Implementations wrap
// the actual providers; tests substitute a recording fake.
type Notifier interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
	SendSMS(ctx context.Context, msg SMSMessage) error
}

// DefaultFanoutConcurrency bounds simultaneous deliveries during a broadcast.
const DefaultFanoutConcurrency = 4

// NotifyService broadcasts security notices to the admin population. Partial
// delivery failure never fails the triggering operation; the report says who
// got through.
type NotifyService struct {
	Store    store.Store
	Notifier Notifier
	Audit    *AuditService

	// MaxConcurrent defaults to DefaultFanoutConcurrency when zero.
	MaxConcurrent int
}

func (s *NotifyService) limit() int {
	if s.MaxConcurrent > 0 {
		return s.MaxConcurrent
	}
	return DefaultFanoutConcurrency
}

// NotifyOthers emails every active admin except the actor. Deliveries run
// concurrently with a bounded limit; individual failures are counted, logged
// and otherwise swallowed. An audit entry summarises the broadcast.
func (s *NotifyService) NotifyOthers(ctx context.Context, actorID, subject, body string, meta jwtx.ClientMeta) (domain.DeliveryReport, error) {
	admins, err := s.Store.Admins().ListActiveAdmins(ctx)
	if err != nil {
		return domain.DeliveryReport{}, err
	}

	var (
		mu     sync.Mutex
		report domain.DeliveryReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit())

	for _, a := range admins {
		if a.ID == actorID {
			continue
		}
		report.Recipients++

		g.Go(func() error {
			err := s.Notifier.SendEmail(gctx, EmailMessage{
				To:      a.Email,
				Subject: subject,
				Body:    body,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				slogx.FromContext(ctx).WarnContext(ctx, "admin notification failed",
					slog.String("recipient", a.ID),
					slog.Any("error", err),
				)
				return nil
			}
			report.Delivered++
			return nil
		})
	}

	// Workers never return errors; Wait only orders the report reads after
	// the last delivery.
	_ = g.Wait()

	s.Audit.record(ctx, actorID, domain.ActionNotificationSent, subject,
		domain.SeverityLow, broadcastStatus(report), meta, map[string]string{
			"recipients": strconv.Itoa(report.Recipients),
			"delivered":  strconv.Itoa(report.Delivered),
			"failed":     strconv.Itoa(report.Failed),
		})

	return report, nil
}

func broadcastStatus(r domain.DeliveryReport) domain.Status {
	if r.Recipients > 0 && r.Delivered == 0 {
		return domain.StatusFailed
	}
	return domain.StatusSuccess
}
