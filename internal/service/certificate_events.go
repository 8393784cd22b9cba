package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/models"
)

const (
	archiveQueueGroup = "certificate-archiver"
	archiveTimeout    = 30 * time.Second
)

// CertificateIssuedEvent is published once a certificate is committed.
type CertificateIssuedEvent struct {
	CertificateID uint      `json:"certificateId"`
	UserID        uint      `json:"userId"`
	AssessmentID  uint      `json:"assessmentId"`
	AttemptID     uint      `json:"attemptId"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// CertificateIssuedSubject returns the NATS subject for issuance events.
func CertificateIssuedSubject(prefix string) string {
	prefix = strings.Trim(strings.ReplaceAll(prefix, ":", "."), ".")
	if prefix == "" {
		prefix = "jobboard"
	}
	return prefix + ".certificates.issued"
}

// NATSCertificateEvents publishes issuance events to NATS.
type NATSCertificateEvents struct {
	conn    *nats.Conn
	subject string
}

// NewNATSCertificateEvents returns a publisher, or nil when conn is nil.
func NewNATSCertificateEvents(conn *nats.Conn, prefix string) *NATSCertificateEvents {
	if conn == nil {
		return nil
	}
	return &NATSCertificateEvents{conn: conn, subject: CertificateIssuedSubject(prefix)}
}

// CertificateIssued publishes the event for certificate.
func (e *NATSCertificateEvents) CertificateIssued(_ context.Context, certificate models.Certificate) error {
	if e == nil {
		return nil
	}
	payload, err := json.Marshal(CertificateIssuedEvent{
		CertificateID: certificate.ID,
		UserID:        certificate.UserID,
		AssessmentID:  certificate.AssessmentID,
		AttemptID:     certificate.AttemptID,
		IssuedAt:      certificate.IssuedAt,
	})
	if err != nil {
		return err
	}
	return e.conn.Publish(e.subject, payload)
}

// CertificateArchiver renders and stores a certificate.
type CertificateArchiver interface {
	Archive(ctx context.Context, id uint) (dto.CertificateArchiveResponse, error)
}

// CertificateArchiveWorker archives certificates announced on NATS.
type CertificateArchiveWorker struct {
	conn     *nats.Conn
	subject  string
	archiver CertificateArchiver
	logger   zerolog.Logger
}

// NewCertificateArchiveWorker builds the worker. conn may be nil, in which case Start does nothing.
func NewCertificateArchiveWorker(conn *nats.Conn, prefix string, archiver CertificateArchiver, logger zerolog.Logger) *CertificateArchiveWorker {
	return &CertificateArchiveWorker{
		conn:     conn,
		subject:  CertificateIssuedSubject(prefix),
		archiver: archiver,
		logger:   logger.With().Str("component", "certificate_archive_worker").Logger(),
	}
}

// Start subscribes in a queue group so each event is archived by one instance.
func (w *CertificateArchiveWorker) Start(ctx context.Context) error {
	if w.conn == nil {
		return nil
	}

	sub, err := w.conn.QueueSubscribe(w.subject, archiveQueueGroup, func(msg *nats.Msg) {
		w.handle(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			w.logger.Warn().Err(err).Msg("failed to drain certificate archive subscription")
		}
	}()

	w.logger.Info().Str("subject", w.subject).Msg("certificate archive worker started")
	return nil
}

func (w *CertificateArchiveWorker) handle(ctx context.Context, data []byte) {
	var event CertificateIssuedEvent
	if err := json.Unmarshal(data, &event); err != nil || event.CertificateID == 0 {
		w.logger.Warn().Err(err).Msg("invalid certificate event")
		return
	}

	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if _, err := w.archiver.Archive(archiveCtx, event.CertificateID); err != nil {
		w.logger.Error().Err(err).Uint("certificate_id", event.CertificateID).Msg("failed to archive certificate")
	}
}

// CertificateReconciler is the retry path for failed issuance.
type CertificateReconciler interface {
	ReconcilePending(ctx context.Context, limit int) (dto.CertificateReconcileResponse, error)
}

// RunCertificateReconciler calls ReconcilePending every interval until ctx is done.
func RunCertificateReconciler(ctx context.Context, reconciler CertificateReconciler, every time.Duration, limit int, logger zerolog.Logger) {
	if every <= 0 {
		return
	}
	logger = logger.With().Str("component", "certificate_reconciler").Logger()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reconciler.ReconcilePending(ctx, limit); err != nil {
				logger.Error().Err(err).Msg("certificate reconciliation pass failed")
			}
		}
	}
}
