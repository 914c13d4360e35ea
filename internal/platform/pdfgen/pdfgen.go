// Package pdfgen renders consent documents as paginated PDFs. It is a pure
// transform from branding, identity, resolved content, an optional signature
// raster and audit metadata to a binary page sequence; it performs no network
// or storage I/O.
package pdfgen

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
)

// Page geometry in millimeters, A4 portrait.
const (
	pageMargin    = 15.0
	lineHeight    = 5.0
	topOffset     = 20.0 // cursor position after a forced page break
	bottomReserve = 30.0 // body and signature must stay above pageH - bottomReserve
	sectionGap    = 8.0
	footerOffset  = 24.0 // audit footer block distance from the bottom edge

	signatureW = 60.0
	signatureH = 25.0
	// full signature region: raster slot, underline gap and name line
	signatureBlockH = signatureH + 12.0
)

// Branding carries the clinic identity printed in the document header.
type Branding struct {
	Name     string
	Address  string
	Phone    string
	LogoPath string
}

// PatientIdentity identifies the patient on the document.
type PatientIdentity struct {
	FullName       string
	IdentityNumber string
}

// Document is the resolved consent content to lay out.
type Document struct {
	Title   string
	Content string
}

// AuditMeta is printed in the footer of the last page. Absent fields render
// as explicit markers rather than being omitted.
type AuditMeta struct {
	SignedAt      time.Time
	IP            string
	IntegrityHash string
}

// Artifact is the rendered result. Filename is a display convenience built
// from the patient's first name and the current date; it carries no
// uniqueness guarantee.
type Artifact struct {
	Bytes    []byte
	Filename string
	Pages    int
}

type Renderer struct {
	logger zerolog.Logger
	now    func() time.Time
}

func New(logger zerolog.Logger) *Renderer {
	return &Renderer{logger: logger, now: time.Now}
}

// Render lays out the consent document. Asset failures (logo, signature
// raster) degrade locally: the logo is skipped, the signature slot gets a
// textual placeholder. Only a failure to emit the PDF itself is an error.
func (r *Renderer) Render(branding Branding, patient PatientIdentity, doc Document, signaturePNG []byte, audit AuditMeta) (*Artifact, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin
	limit := pageH - bottomReserve

	r.drawHeader(pdf, tr, branding, pageW, contentW)
	r.drawTitle(pdf, tr, doc.Title, pageW, contentW)
	r.drawIdentity(pdf, tr, patient, contentW)
	r.drawBody(pdf, tr, doc.Content, contentW, limit)

	// Second overflow check: never start the signature block inside the
	// bottom reserve, a cropped signature is not legally inspectable.
	if needsBreak(pdf.GetY(), signatureBlockH, limit) {
		pdf.AddPage()
		pdf.SetY(topOffset)
	}
	r.drawSignature(pdf, tr, patient, signaturePNG, pageW, contentW)

	r.drawAuditFooter(pdf, tr, audit, pageH, contentW)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Artifact{
		Bytes:    buf.Bytes(),
		Filename: r.filename(patient.FullName),
		Pages:    pdf.PageCount(),
	}, nil
}

// needsBreak reports whether a block of the given height starting at y would
// cross the bottom reserve threshold.
func needsBreak(y, blockH, limit float64) bool {
	return y+blockH > limit
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, branding Branding, pageW, contentW float64) {
	if branding.LogoPath != "" {
		r.drawLogo(pdf, branding.LogoPath, pageW)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 7, tr(branding.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if branding.Address != "" {
		pdf.CellFormat(contentW, 5, tr(branding.Address), "", 1, "C", false, 0, "")
	}
	if branding.Phone != "" {
		pdf.CellFormat(contentW, 5, tr(branding.Phone), "", 1, "C", false, 0, "")
	}
	pdf.SetY(pdf.GetY() + 3)
}

// drawLogo embeds the clinic logo centered at the top of the page. A logo
// that cannot be read or decoded is logged and skipped, never fatal.
func (r *Renderer) drawLogo(pdf *gofpdf.Fpdf, path string, pageW float64) {
	const logoW = 24.0
	if _, err := os.Stat(path); err != nil {
		r.logger.Warn().Err(err).Str("logo", path).Msg("clinic logo unavailable, skipping")
		return
	}
	y := pdf.GetY()
	pdf.ImageOptions(path, (pageW-logoW)/2, y, logoW, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
	if !pdf.Ok() {
		r.logger.Warn().Str("logo", path).Str("error", pdf.Error().Error()).Msg("clinic logo failed to embed, skipping")
		pdf.ClearError()
		return
	}
	pdf.SetY(y + 14)
}

func (r *Renderer) drawTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string, pageW, contentW float64) {
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.SetY(y + 4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(contentW, 6, tr(strings.ToUpper(title)), "", "C", false)
	pdf.SetY(pdf.GetY() + 3)
}

func (r *Renderer) drawIdentity(pdf *gofpdf.Fpdf, tr func(string) string, patient PatientIdentity, contentW float64) {
	pdf.SetFont("Helvetica", "", 10)
	line := "Paciente: " + patient.FullName
	if patient.IdentityNumber != "" {
		line += "    Documento: " + patient.IdentityNumber
	}
	pdf.CellFormat(contentW, 6, tr(line), "", 1, "L", false, 0, "")
	pdf.SetY(pdf.GetY() + 2)
}

// drawBody word-wraps the substituted content to the content width and flows
// it across pages: the wrapped extent is lineCount times lineHeight, and any
// line that would land past the bottom reserve starts a new page with the
// cursor reset to the top offset.
func (r *Renderer) drawBody(pdf *gofpdf.Fpdf, tr func(string) string, content string, contentW, limit float64) {
	pdf.SetFont("Helvetica", "", 11)
	lines := pdf.SplitText(tr(content), contentW)
	for _, line := range lines {
		if needsBreak(pdf.GetY(), lineHeight, limit) {
			pdf.AddPage()
			pdf.SetY(topOffset)
		}
		pdf.CellFormat(contentW, lineHeight, line, "", 1, "L", false, 0, "")
	}
	pdf.SetY(pdf.GetY() + sectionGap)
}

// drawSignature embeds the signature raster centered at a fixed size. The
// same vertical extent is consumed whether the raster is present, absent or
// broken, so the footer position does not depend on signature state.
func (r *Renderer) drawSignature(pdf *gofpdf.Fpdf, tr func(string) string, patient PatientIdentity, signaturePNG []byte, pageW, contentW float64) {
	y := pdf.GetY()
	if len(signaturePNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("patient-signature", opts, bytes.NewReader(signaturePNG))
		if pdf.Ok() {
			pdf.ImageOptions("patient-signature", (pageW-signatureW)/2, y, signatureW, signatureH, false, opts, 0, "")
		}
		if !pdf.Ok() {
			r.logger.Warn().Str("error", pdf.Error().Error()).Msg("signature raster failed to embed, substituting placeholder")
			pdf.ClearError()
			pdf.SetXY(pageMargin, y+signatureH/2)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(contentW, lineHeight, tr("[erro na imagem da assinatura]"), "", 1, "C", false, 0, "")
		}
	}

	pdf.SetY(y + signatureH + 4)
	const underlineW = 80.0
	pdf.Line((pageW-underlineW)/2, pdf.GetY(), (pageW+underlineW)/2, pdf.GetY())
	pdf.SetY(pdf.GetY() + 2)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr(patient.FullName), "", 1, "C", false, 0, "")
}

// drawAuditFooter anchors the audit block near the bottom edge of the last
// page regardless of how much body preceded it.
func (r *Renderer) drawAuditFooter(pdf *gofpdf.Fpdf, tr func(string) string, audit AuditMeta, pageH, contentW float64) {
	hash := audit.IntegrityHash
	if hash == "" {
		hash = "não disponível"
	}
	ip := audit.IP
	if ip == "" {
		ip = "não registrado"
	}

	pdf.SetY(pageH - footerOffset)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, tr("Hash de integridade: "+hash), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("Assinado em: "+audit.SignedAt.Format("02/01/2006 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, tr("IP de origem: "+ip), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("Documento gerado eletronicamente por Clinicore"), "", 1, "R", false, 0, "")
}

func (r *Renderer) filename(fullName string) string {
	first := "paciente"
	if fields := strings.Fields(fullName); len(fields) > 0 {
		first = strings.ToLower(fields[0])
	}
	return fmt.Sprintf("termo_%s_%s.pdf", first, r.now().Format("2006-01-02"))
}
