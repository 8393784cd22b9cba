package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDomainCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(VerificationLookups().WithLabelValues("unknown"))
	VerificationLookups().WithLabelValues("unknown").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(VerificationLookups().WithLabelValues("unknown")))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	CertificateRenders().WithLabelValues("stream").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "certificate_renders_total")
}
