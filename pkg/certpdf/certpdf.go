// Package certpdf lays out completion certificates as single page PDFs.
package certpdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// DefaultDateLayout formats the issuance date when no layout is configured.
const DefaultDateLayout = "January 2, 2006"

const (
	qrImageName = "verification-qr"
	qrEdgeMM    = 35.0
	borderInset = 9.0
)

// Document is everything printed on a certificate.
type Document struct {
	HolderName     string
	AssessmentName string
	IssuedAt       time.Time
	// QRCode holds PNG bytes; nil omits the image.
	QRCode []byte
}

// Renderer produces certificate PDFs. Rendering the same Document twice yields
// identical bytes.
type Renderer struct {
	DateLayout string
	Location   *time.Location
	Compress   bool
}

// NewRenderer returns a Renderer with compressed output.
func NewRenderer(dateLayout string) *Renderer {
	if strings.TrimSpace(dateLayout) == "" {
		dateLayout = DefaultDateLayout
	}
	return &Renderer{DateLayout: dateLayout, Location: time.UTC, Compress: true}
}

// Render writes the certificate to w.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	pdf := r.layout(doc)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return nil
}

// Bytes renders the certificate into memory.
func (r *Renderer) Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatDate renders an issuance timestamp the way it appears on the page.
func (r *Renderer) FormatDate(t time.Time) string {
	layout := r.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	if r.Location != nil {
		t = t.In(r.Location)
	}
	return t.Format(layout)
}

func (r *Renderer) layout(doc Document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetModificationDate(doc.IssuedAt)
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.SetDrawColor(170, 170, 170)
	pdf.SetLineWidth(0.5)
	pdf.Rect(borderInset, borderInset, pageWidth-2*borderInset, pageHeight-2*borderInset, "D")

	pdf.SetY(40)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(0, 14, tr("Certificate of Completion"), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 12, tr(doc.HolderName), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(68, 68, 68)
	sentence := fmt.Sprintf("has successfully completed the skill assessment: \"%s\"", doc.AssessmentName)
	pdf.MultiCell(0, 8, tr(sentence), "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 8, tr("Issued on: "+r.FormatDate(doc.IssuedAt)), "", 1, "C", false, 0, "")

	if len(doc.QRCode) > 0 {
		options := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(qrImageName, options, bytes.NewReader(doc.QRCode))
		if pdf.Ok() {
			x := pageWidth/2 - qrEdgeMM/2
			y := pdf.GetY() + 7
			pdf.ImageOptions(qrImageName, x, y, qrEdgeMM, qrEdgeMM, false, options, 0, "")
		}
	}

	return pdf
}
