package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobboard-api/internal/dto"
	"github.com/noah-isme/jobboard-api/internal/models"
)

type certifiedFixture struct {
	testApp
	holder      models.User
	certificate models.Certificate
}

func setupCertified(t *testing.T) certifiedFixture {
	t.Helper()
	a := setupApp(t)
	developer := a.createUser(t, "Dev One", models.RoleDeveloper)
	holder := a.createUser(t, "Ada Lovelace", models.RoleUser)
	quiz := createQuiz(t, a, developer)

	resp := a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/assessments/%d/submit", quiz.ID), &holder,
		map[string]interface{}{"answers": []string{"go fmt", "defer"}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var certificate models.Certificate
	require.NoError(t, a.db.Where("user_id = ?", holder.ID).First(&certificate).Error)
	return certifiedFixture{testApp: a, holder: holder, certificate: certificate}
}

func readJSON(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestCertificateVerificationContract(t *testing.T) {
	f := setupCertified(t)

	schemaPath, err := filepath.Abs(filepath.Join("testdata", "certificate_verification.schema.json"))
	require.NoError(t, err)
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/v1/certificates/verify/"+f.certificate.VerificationCode, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	valid := readJSON(t, resp)
	require.NoError(t, schema.Validate(valid))
	require.Equal(t, true, valid.(map[string]interface{})["valid"])

	resp = f.do(t, http.MethodGet, "/api/v1/certificates/verify/not-a-real-code", nil, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	invalid := readJSON(t, resp)
	require.NoError(t, schema.Validate(invalid))
	require.Equal(t, map[string]interface{}{
		"valid":   false,
		"message": "certificate not found or invalid",
	}, invalid)
}

func TestCertificateVerifyReportsHolder(t *testing.T) {
	f := setupCertified(t)

	resp := f.do(t, http.MethodGet, "/api/v1/certificates/verify/"+f.certificate.VerificationCode, nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.CertificateVerificationResponse
	decode(t, resp, &body)
	require.True(t, body.Valid)
	require.Equal(t, "Ada Lovelace", body.User.Name)
	require.Equal(t, "Go Fundamentals", body.Assessment.Name)
	require.Equal(t, fmt.Sprintf("https://api.test/api/v1/certificates/download/%d", f.certificate.ID), body.CertificateURL)
}

func TestCertificateDownload(t *testing.T) {
	f := setupCertified(t)
	path := fmt.Sprintf("/api/v1/certificates/download/%d", f.certificate.ID)

	resp := f.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = f.do(t, http.MethodGet, path, &f.holder, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	require.Equal(t, fmt.Sprintf(`inline; filename="certificate-%d.pdf"`, f.certificate.ID), resp.Header.Get(fiber.HeaderContentDisposition))
	require.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	document, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(document[:4]))

	resp = f.do(t, http.MethodGet, path+"?download=true", &f.holder, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, fmt.Sprintf(`attachment; filename="certificate-%d.pdf"`, f.certificate.ID), resp.Header.Get(fiber.HeaderContentDisposition))

	stranger := f.createUser(t, "Eve Mallory", models.RoleUser)
	resp = f.do(t, http.MethodGet, path, &stranger, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	admin := f.createUser(t, "Root Admin", models.RoleAdmin)
	resp = f.do(t, http.MethodGet, path, &admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/certificates/download/0", &f.holder, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCertificateReconcileEndpoint(t *testing.T) {
	f := setupCertified(t)
	admin := f.createUser(t, "Root Admin", models.RoleAdmin)

	resp := f.do(t, http.MethodPost, "/api/v1/admin/certificates/reconcile", &f.holder, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/certificates/reconcile?limit=abc", &admin, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/certificates/reconcile?limit=5000", &admin, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	require.NoError(t, f.db.Delete(&models.Certificate{}, f.certificate.ID).Error)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/certificates/reconcile?limit=10", &admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body envelope[dto.CertificateReconcileResponse]
	decode(t, resp, &body)
	require.Equal(t, 1, body.Data.Scanned)
	require.Equal(t, 1, body.Data.Issued)

	var count int64
	require.NoError(t, f.db.Model(&models.Certificate{}).Where("user_id = ?", f.holder.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCertificateArchiveEndpoint(t *testing.T) {
	f := setupCertified(t)
	admin := f.createUser(t, "Root Admin", models.RoleAdmin)

	resp := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/certificates/%d/archive", f.certificate.ID), &admin, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body envelope[dto.CertificateArchiveResponse]
	decode(t, resp, &body)
	require.Equal(t, f.certificate.ID, body.Data.CertificateID)
	require.Equal(t, fmt.Sprintf("%d.pdf", f.certificate.ID), filepath.Base(body.Data.Location))

	resp = f.do(t, http.MethodPost, "/api/v1/admin/certificates/999/archive", &admin, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
