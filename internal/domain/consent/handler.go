package consent

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consent-records", h.Create)
	api.GET("/consent-records", h.ListByPatient)
	api.GET("/consent-records/:id", h.Get)
	api.GET("/consent-records/:id/document", h.RenderDocument)
	api.POST("/consent-records/:id/signature", h.SubmitSignature)
	api.GET("/consent-records/:id/signing-link", h.SigningLink)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.CreateRecord(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consent record not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// signatureRequest carries the canvas export. The raster arrives base64
// encoded in JSON; an empty value is rejected locally without touching
// storage.
type signatureRequest struct {
	SignaturePNG string `json:"signature_png"`
}

func (h *Handler) SubmitSignature(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req signatureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var raw []byte
	if req.SignaturePNG != "" {
		raw, err = base64.StdEncoding.DecodeString(req.SignaturePNG)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "signature_png is not valid base64")
		}
	}

	session := h.svc.NewSession(id, NewRasterSurface(raw))
	if err := session.Submit(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, ErrEmptySignature):
			return echo.NewHTTPError(http.StatusBadRequest, "assine antes de enviar")
		case errors.Is(err, ErrNotPending):
			return echo.NewHTTPError(http.StatusConflict, "consent record is not pending signature")
		default:
			return echo.NewHTTPError(http.StatusBadGateway, "não foi possível salvar a assinatura, tente novamente")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": string(session.State()),
	})
}

func (h *Handler) SigningLink(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consent record not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url": h.svc.SigningLink(rec.PatientID, rec.ProcedureName),
	})
}

func (h *Handler) RenderDocument(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	art, err := h.svc.RenderDocument(c.Request().Context(), id, c.RealIP())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consent record not found")
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+art.Filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", art.Bytes)
}
