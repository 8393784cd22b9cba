package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/models"
)

type archiverStub struct {
	ids      []uint
	deadline bool
	err      error
}

func (a *archiverStub) Archive(ctx context.Context, id uint) (dto.CertificateArchiveResponse, error) {
	_, a.deadline = ctx.Deadline()
	a.ids = append(a.ids, id)
	return dto.CertificateArchiveResponse{CertificateID: id}, a.err
}

type reconcilerStub struct {
	calls chan int
}

func (r *reconcilerStub) ReconcilePending(ctx context.Context, limit int) (dto.CertificateReconcileResponse, error) {
	select {
	case r.calls <- limit:
	default:
	}
	return dto.CertificateReconcileResponse{}, errors.New("ignored")
}

func TestCertificateIssuedSubject(t *testing.T) {
	require.Equal(t, "jobboard.certificates.issued", CertificateIssuedSubject(""))
	require.Equal(t, "acme.certificates.issued", CertificateIssuedSubject("acme."))
	require.Equal(t, "acme.prod.certificates.issued", CertificateIssuedSubject("acme:prod"))
}

func TestNATSCertificateEventsNilSafe(t *testing.T) {
	events := NewNATSCertificateEvents(nil, "jobboard")
	require.Nil(t, events)
	require.NoError(t, events.CertificateIssued(context.Background(), models.Certificate{ID: 1}))
}

func TestCertificateArchiveWorkerHandle(t *testing.T) {
	archiver := &archiverStub{}
	worker := NewCertificateArchiveWorker(nil, "jobboard", archiver, testLogger())

	payload, err := json.Marshal(CertificateIssuedEvent{CertificateID: 12, UserID: 1, AssessmentID: 2, AttemptID: 3, IssuedAt: time.Now()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.handle(ctx, payload)
	require.Equal(t, []uint{12}, archiver.ids)
	require.True(t, archiver.deadline)

	worker.handle(context.Background(), []byte(`not json`))
	worker.handle(context.Background(), []byte(`{"certificateId":0}`))
	require.Len(t, archiver.ids, 1)

	archiver.err = errors.New("disk full")
	worker.handle(context.Background(), payload)
	require.Len(t, archiver.ids, 2)
}

func TestCertificateArchiveWorkerStartWithoutConnection(t *testing.T) {
	worker := NewCertificateArchiveWorker(nil, "jobboard", &archiverStub{}, testLogger())
	require.NoError(t, worker.Start(context.Background()))
}

func TestRunCertificateReconciler(t *testing.T) {
	reconciler := &reconcilerStub{calls: make(chan int, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunCertificateReconciler(ctx, reconciler, 5*time.Millisecond, 25, testLogger())
		close(done)
	}()

	select {
	case limit := <-reconciler.calls:
		require.Equal(t, 25, limit)
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestRunCertificateReconcilerDisabled(t *testing.T) {
	RunCertificateReconciler(context.Background(), &reconcilerStub{calls: make(chan int, 1)}, 0, 10, testLogger())
}
