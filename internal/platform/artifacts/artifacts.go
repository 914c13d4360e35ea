// Package artifacts stores rendered consent documents. It defines the Store
// interface, an in-memory implementation suitable for development and tests,
// and Echo handlers for download and listing. Durable storage is the
// deployment's concern; the service only needs Put/Get semantics.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactTooLarge = errors.New("artifact exceeds maximum allowed size")
	ErrEmptyArtifact    = errors.New("artifact data is empty")
)

// MaxArtifactSize caps a single rendered document (10 MB).
const MaxArtifactSize = 10 * 1024 * 1024

// Metadata describes a stored artifact.
type Metadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   string    `json:"patient_id,omitempty"`
	RecordID    string    `json:"record_id,omitempty"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists rendered documents keyed by generated id.
type Store interface {
	Put(ctx context.Context, meta Metadata, data []byte) (*Metadata, error)
	Get(ctx context.Context, id string) (*Metadata, []byte, error)
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID string) ([]*Metadata, error)
}

// MemStore is a thread-safe in-memory Store.
type MemStore struct {
	mu    sync.RWMutex
	metas map[string]*Metadata
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{
		metas: make(map[string]*Metadata),
		blobs: make(map[string][]byte),
	}
}

func (s *MemStore) Put(_ context.Context, meta Metadata, data []byte) (*Metadata, error) {
	if len(data) == 0 {
		return nil, ErrEmptyArtifact
	}
	if len(data) > MaxArtifactSize {
		return nil, ErrArtifactTooLarge
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	sum := sha256.Sum256(data)
	meta.Hash = hex.EncodeToString(sum[:])
	meta.CreatedAt = time.Now()
	if meta.ContentType == "" {
		meta.ContentType = "application/pdf"
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas[meta.ID] = &meta
	s.blobs[meta.ID] = stored
	return &meta, nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Metadata, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metas[id]
	if !ok {
		return nil, nil, ErrArtifactNotFound
	}
	data := make([]byte, len(s.blobs[id]))
	copy(data, s.blobs[id])
	return meta, data, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.metas[id]; !ok {
		return ErrArtifactNotFound
	}
	delete(s.metas, id)
	delete(s.blobs, id)
	return nil
}

func (s *MemStore) ListByPatient(_ context.Context, patientID string) ([]*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Metadata
	for _, m := range s.metas {
		if m.PatientID == patientID {
			result = append(result, m)
		}
	}
	return result, nil
}

// Handler exposes download and listing over HTTP.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/artifacts", h.List)
	api.GET("/artifacts/:id", h.Download)
	api.DELETE("/artifacts/:id", h.Delete)
}

func (h *Handler) Download(c echo.Context) error {
	meta, data, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+meta.FileName+`"`)
	return c.Blob(http.StatusOK, meta.ContentType, data)
}

func (h *Handler) List(c echo.Context) error {
	patientID := c.QueryParam("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	items, err := h.store.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	return c.NoContent(http.StatusNoContent)
}
