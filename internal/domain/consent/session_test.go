package consent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeSurface is an in-memory drawing surface for session tests.
type fakeSurface struct {
	data      []byte
	exportErr error
}

func (f *fakeSurface) IsEmpty() bool { return len(f.data) == 0 }
func (f *fakeSurface) Clear()        { f.data = nil }
func (f *fakeSurface) ExportPNG() ([]byte, error) {
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return f.data, nil
}

func pendingRecord(repo *mockRecordRepo) *Record {
	rec := &Record{
		ClinicID:      uuid.New(),
		PatientID:     uuid.New(),
		PatientName:   "Maria da Silva",
		ProcedureName: "Botox",
		Type:          TypeTermo,
		Status:        StatusPending,
	}
	repo.Create(context.Background(), rec)
	return rec
}

func TestSubmitHappyPath(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)
	surface := &fakeSurface{data: []byte("png-bytes")}
	session := NewSession(rec.ID, surface, repo, zerolog.Nop())

	if session.State() != StateAwaitingSignature {
		t.Fatalf("expected initial state awaiting_signature, got %s", session.State())
	}
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.State() != StateSigned {
		t.Errorf("expected terminal signed state, got %s", session.State())
	}

	stored := repo.items[rec.ID]
	if stored.Status != StatusSignedByPatient {
		t.Errorf("expected status signed_by_patient, got %s", stored.Status)
	}
	if stored.PatientSignature == nil {
		t.Error("expected persisted signature")
	}
	if stored.PatientSignedAt == nil {
		t.Error("expected patient_signed_at to be set")
	}
}

func TestSubmitEmptySurfaceRejectedLocally(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)
	session := NewSession(rec.ID, &fakeSurface{}, repo, zerolog.Nop())

	err := session.Submit(context.Background())
	if !errors.Is(err, ErrEmptySignature) {
		t.Fatalf("expected ErrEmptySignature, got %v", err)
	}
	if session.State() != StateAwaitingSignature {
		t.Errorf("state must stay awaiting_signature, got %s", session.State())
	}
	if repo.items[rec.ID].Status != StatusPending {
		t.Error("storage must not be contacted for an empty drawing")
	}
}

func TestSubmitPersistenceFailureKeepsDrawing(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)
	repo.attachErr = fmt.Errorf("connection reset")
	surface := &fakeSurface{data: []byte("png-bytes")}
	session := NewSession(rec.ID, surface, repo, zerolog.Nop())

	if err := session.Submit(context.Background()); err == nil {
		t.Fatal("expected error from failed persistence")
	}
	if session.State() != StateAwaitingSignature {
		t.Errorf("failed submit must return to awaiting_signature, got %s", session.State())
	}
	if surface.IsEmpty() {
		t.Error("drawing must be preserved for retry")
	}

	// Retry succeeds once storage recovers.
	repo.attachErr = nil
	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if session.State() != StateSigned {
		t.Errorf("expected signed after retry, got %s", session.State())
	}
}

func TestSubmitIsOneShot(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)
	session := NewSession(rec.ID, &fakeSurface{data: []byte("png")}, repo, zerolog.Nop())

	if err := session.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.Submit(context.Background()); !errors.Is(err, ErrSessionSigned) {
		t.Errorf("second submit must be unreachable, got %v", err)
	}
}

func TestSecondSessionCannotOverwriteSignature(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)

	first := NewSession(rec.ID, &fakeSurface{data: []byte("first")}, repo, zerolog.Nop())
	if err := first.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := NewSession(rec.ID, &fakeSurface{data: []byte("second")}, repo, zerolog.Nop())
	err := second.Submit(context.Background())
	if err == nil {
		t.Fatal("expected conditional update to reject the second signature")
	}
	if !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if string(repo.items[rec.ID].PatientSignature) != "first" {
		t.Error("the first signature must never be overwritten")
	}
}

func TestClearIsAlwaysLegal(t *testing.T) {
	repo := newMockRecordRepo()
	rec := pendingRecord(repo)
	surface := &fakeSurface{data: []byte("png")}
	session := NewSession(rec.ID, surface, repo, zerolog.Nop())

	session.Clear()
	if !surface.IsEmpty() {
		t.Error("clear must reset the surface")
	}
	if repo.items[rec.ID].Status != StatusPending {
		t.Error("clear must not touch persisted state")
	}
}

// -- RasterSurface --

func canvasPNG(t *testing.T, w, h int, drawn image.Rectangle) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := drawn.Min.Y; y < drawn.Max.Y; y++ {
		for x := drawn.Min.X; x < drawn.Max.X; x++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode canvas: %v", err)
	}
	return buf.Bytes()
}

func TestRasterSurfaceTrimsToContentBounds(t *testing.T) {
	data := canvasPNG(t, 300, 150, image.Rect(40, 60, 120, 90))
	surface := NewRasterSurface(data)

	out, err := surface.ExportPNG()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode trimmed output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 80 || b.Dy() != 30 {
		t.Errorf("expected 80x30 trimmed raster, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRasterSurfaceRejectsBadPNG(t *testing.T) {
	surface := NewRasterSurface([]byte("not a png"))
	if _, err := surface.ExportPNG(); err == nil {
		t.Error("expected decode error")
	}
}

func TestRasterSurfaceEmpty(t *testing.T) {
	surface := NewRasterSurface(nil)
	if !surface.IsEmpty() {
		t.Error("expected empty surface")
	}
}
