package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/fertilizer"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/http/middleware"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/service"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	recs           *service.RecommendationService
	diagnoses      *service.DiagnosisService
	uploadMaxBytes int64
	log            zerolog.Logger
}

func NewHandler(recs *service.RecommendationService, diagnoses *service.DiagnosisService, uploadMaxBytes int64, log zerolog.Logger) *Handler {
	return &Handler{
		recs:           recs,
		diagnoses:      diagnoses,
		uploadMaxBytes: uploadMaxBytes,
		log:            log,
	}
}

// Register mounts the public endpoints behind optionalAuth and limit. The
// history endpoints need authMiddleware and are skipped when it is nil or
// history storage is off.
func (h *Handler) Register(router *gin.Engine, optionalAuth, authMiddleware, limit gin.HandlerFunc) {
	public := router.Group("/")
	public.Use(limit)
	public.POST("/predict", optionalAuth, h.predict)
	public.POST("/diagnose", h.diagnose)

	if authMiddleware == nil || !h.recs.HistoryEnabled() {
		return
	}

	protected := router.Group("/recommendations")
	protected.Use(authMiddleware)
	protected.GET("", h.listRecommendations)
	protected.GET("/:id", h.getRecommendation)
	protected.GET("/:id/pdf", h.recommendationPDF)
	protected.POST("/export", h.exportHistory)
}

type predictRequest struct {
	Crop      string   `json:"crop" binding:"required"`
	PH        *float64 `json:"ph" binding:"required,gte=0,lte=14"`
	Latitude  *float64 `json:"latitud" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitud" binding:"required,gte=-180,lte=180"`
}

type nutrientsResponse struct {
	N float64 `json:"N"`
	P float64 `json:"P"`
	K float64 `json:"K"`
}

type planItemResponse struct {
	Product  string  `json:"product"`
	Role     string  `json:"role"`
	Quantity float64 `json:"quantity_kg_ha"`
}

type predictResponse struct {
	Success        bool               `json:"success"`
	ID             *uuid.UUID         `json:"id,omitempty"`
	Crop           string             `json:"crop"`
	Nutrients      nutrientsResponse  `json:"nutrientes_requeridos"`
	Weather        model.Weather      `json:"datos_clima"`
	Recommendation string             `json:"recomendacion"`
	Plan           []planItemResponse `json:"plan"`
}

func (h *Handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.recs.Recommend(c.Request.Context(), service.RecommendInput{
		Crop:      req.Crop,
		PH:        *req.PH,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Principal: middleware.PrincipalOrAnonymous(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, predictResponse{
		Success: true,
		ID:      result.ID,
		Crop:    result.CropLabel,
		Nutrients: nutrientsResponse{
			N: result.Requirement.N,
			P: result.Requirement.P,
			K: result.Requirement.K,
		},
		Weather:        result.Weather,
		Recommendation: result.Plan.Text(),
		Plan:           planItems(result.Plan),
	})
}

func planItems(plan fertilizer.Plan) []planItemResponse {
	items := make([]planItemResponse, 0, len(plan.Items))
	for _, item := range plan.Items {
		items = append(items, planItemResponse{
			Product:  item.Product.Name,
			Role:     string(item.Role),
			Quantity: fertilizer.Round2(item.Quantity),
		})
	}
	return items
}

func (h *Handler) diagnose(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	diagnosis, err := h.diagnoses.Diagnose(c.Request.Context(), file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"class":      diagnosis.Label,
		"class_id":   diagnosis.Class,
		"confidence": fmt.Sprintf("%.2f%%", diagnosis.Confidence*100),
	})
}

type recommendationResponse struct {
	ID             uuid.UUID         `json:"id"`
	Crop           string            `json:"crop"`
	CropLabel      string            `json:"crop_label"`
	PH             float64           `json:"ph"`
	Latitude       float64           `json:"latitud"`
	Longitude      float64           `json:"longitud"`
	Weather        model.Weather     `json:"datos_clima"`
	Nutrients      nutrientsResponse `json:"nutrientes_requeridos"`
	Recommendation string            `json:"recomendacion"`
	CreatedAt      time.Time         `json:"created_at"`
}

func toRecommendationResponse(rec model.Recommendation) recommendationResponse {
	return recommendationResponse{
		ID:        rec.ID,
		Crop:      rec.CropInput,
		CropLabel: rec.CropLabel,
		PH:        rec.PH,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		Weather:   rec.Weather(),
		Nutrients: nutrientsResponse{
			N: fertilizer.Round2(rec.NitrogenKgHa),
			P: fertilizer.Round2(rec.PhosphorusKgHa),
			K: fertilizer.Round2(rec.PotassiumKgHa),
		},
		Recommendation: rec.PlanText,
		CreatedAt:      rec.CreatedAt,
	}
}

func (h *Handler) listRecommendations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	items, err := h.recs.List(c.Request.Context(), principal, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	data := make([]recommendationResponse, 0, len(items))
	for _, item := range items {
		data = append(data, toRecommendationResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (h *Handler) getRecommendation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	rec, err := h.recs.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toRecommendationResponse(*rec)})
}

func (h *Handler) recommendationPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result, err := h.recs.RenderPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

type exportHistoryRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) exportHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}

	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.recs.ExportHistory(c.Request.Context(), service.ExportInput{
		PeriodStart: start,
		PeriodEnd:   end,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPredictionUnavailable):
		h.log.Warn().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("prediction unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrPredictionUnavailable.Error()})
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
