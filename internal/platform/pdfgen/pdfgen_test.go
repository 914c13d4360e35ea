package pdfgen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRenderer() *Renderer {
	r := New(zerolog.Nop())
	r.now = func() time.Time { return time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC) }
	return r
}

func testBranding() Branding {
	return Branding{Name: "Clínica Bela Vida", Address: "Rua das Flores, 100", Phone: "(11) 99999-0000"}
}

func testPatient() PatientIdentity {
	return PatientIdentity{FullName: "Maria da Silva", IdentityNumber: "123.456.789-00"}
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for x := 10; x < 110; x++ {
		img.Set(x, 20, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode signature png: %v", err)
	}
	return buf.Bytes()
}

func TestRenderShortBodySinglePage(t *testing.T) {
	r := newTestRenderer()
	art, err := r.Render(testBranding(), testPatient(),
		Document{Title: "Termo de Consentimento", Content: "Texto curto de consentimento."},
		nil, AuditMeta{SignedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Pages != 1 {
		t.Errorf("expected 1 page for a short body, got %d", art.Pages)
	}
	if !bytes.HasPrefix(art.Bytes, []byte("%PDF-")) {
		t.Error("output does not look like a PDF")
	}
}

func TestRenderLongBodyPaginates(t *testing.T) {
	r := newTestRenderer()
	// ~3000 characters: enough wrapped lines to exceed one page.
	body := strings.Repeat("O paciente declara estar ciente dos riscos e benefícios do procedimento proposto. ", 40)
	art, err := r.Render(testBranding(), testPatient(),
		Document{Title: "Termo Extenso", Content: body},
		signaturePNG(t), AuditMeta{SignedAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Pages < 2 {
		t.Errorf("expected at least 2 pages for a long body, got %d", art.Pages)
	}
}

func TestRenderWithSignature(t *testing.T) {
	r := newTestRenderer()
	art, err := r.Render(testBranding(), testPatient(),
		Document{Title: "Termo", Content: "Conteúdo."},
		signaturePNG(t), AuditMeta{SignedAt: time.Now(), IP: "10.0.0.7", IntegrityHash: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(art.Bytes) == 0 {
		t.Fatal("empty artifact")
	}
}

func TestRenderBrokenSignatureDegrades(t *testing.T) {
	r := newTestRenderer()
	_, err := r.Render(testBranding(), testPatient(),
		Document{Title: "Termo", Content: "Conteúdo."},
		[]byte("not a png"), AuditMeta{SignedAt: time.Now()})
	if err != nil {
		t.Fatalf("a broken signature raster must not fail the render: %v", err)
	}
}

func TestRenderMissingLogoDegrades(t *testing.T) {
	r := newTestRenderer()
	branding := testBranding()
	branding.LogoPath = "/nonexistent/logo.png"
	_, err := r.Render(branding, testPatient(),
		Document{Title: "Termo", Content: "Conteúdo."},
		nil, AuditMeta{SignedAt: time.Now()})
	if err != nil {
		t.Fatalf("a missing logo must not fail the render: %v", err)
	}
}

func TestRenderAbsentAuditFieldsUseMarkers(t *testing.T) {
	r := newTestRenderer()
	// Absent hash and IP render as explicit markers; the render must still
	// succeed and produce a complete footer.
	art, err := r.Render(testBranding(), testPatient(),
		Document{Title: "Termo", Content: "Conteúdo."},
		nil, AuditMeta{SignedAt: time.Date(2025, 3, 2, 9, 0, 5, 0, time.UTC)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(art.Bytes) == 0 {
		t.Fatal("empty artifact")
	}
}

func TestFilename(t *testing.T) {
	r := newTestRenderer()
	art, err := r.Render(testBranding(), PatientIdentity{FullName: "Maria da Silva"},
		Document{Title: "t", Content: "c"}, nil, AuditMeta{SignedAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Filename != "termo_maria_2025-03-02.pdf" {
		t.Errorf("unexpected filename: %s", art.Filename)
	}

	art, err = r.Render(testBranding(), PatientIdentity{},
		Document{Title: "t", Content: "c"}, nil, AuditMeta{SignedAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Filename != "termo_paciente_2025-03-02.pdf" {
		t.Errorf("unexpected fallback filename: %s", art.Filename)
	}
}

func TestNeedsBreak(t *testing.T) {
	limit := 267.0 // A4 height minus bottom reserve
	if needsBreak(100, 37, limit) {
		t.Error("block comfortably above the reserve should not break")
	}
	if !needsBreak(250, 37, limit) {
		t.Error("block crossing the reserve must break")
	}
	if needsBreak(230, 37, limit) {
		t.Error("block ending exactly at the threshold should not break")
	}
}
