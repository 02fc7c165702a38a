package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"habboverify/internal/logger"
	"habboverify/internal/models"
	"habboverify/internal/pdf"
	"habboverify/internal/repositories"
)

type RecordsHandler struct {
	repo    repositories.VerificationRepository
	pdf     pdf.Generator
	guildID string
}

func NewRecordsHandler(repo repositories.VerificationRepository, gen pdf.Generator, guildID string) *RecordsHandler {
	return &RecordsHandler{repo: repo, pdf: gen, guildID: guildID}
}

// @Summary      List verification records
// @Tags         Admin
// @Produce      json
// @Param        verified  query     bool  false  "Only verified records"
// @Success      200       {array}   models.VerifiedUser
// @Failure      400       {object}  map[string]string
// @Failure      500       {object}  map[string]string
// @Security     BearerAuth
// @Router       /admin/records [get]
func (h *RecordsHandler) List(c *gin.Context) {
	records, ok := h.load(c)
	if !ok {
		return
	}
	if records == nil {
		records = []models.VerifiedUser{}
	}
	c.JSON(http.StatusOK, records)
}

// @Summary      Records report
// @Tags         Admin
// @Produce      application/pdf
// @Param        verified  query  bool  false  "Only verified records"
// @Success      200
// @Failure      500  {object}  map[string]string
// @Security     BearerAuth
// @Router       /admin/records/report.pdf [get]
func (h *RecordsHandler) Report(c *gin.Context) {
	records, ok := h.load(c)
	if !ok {
		return
	}
	now := time.Now()
	var buf bytes.Buffer
	if err := h.pdf.RecordsReport(&buf, pdf.ReportData{GuildID: h.guildID, Records: records, GeneratedAt: now}); err != nil {
		logger.Log.Errorf("[admin][report] render failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="verified_users_%s.pdf"`, now.Format("20060102")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *RecordsHandler) load(c *gin.Context) ([]models.VerifiedUser, bool) {
	verifiedOnly, err := strconv.ParseBool(c.DefaultQuery("verified", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verified must be a boolean"})
		return nil, false
	}
	records, err := h.repo.List(c.Request.Context(), verifiedOnly)
	if err != nil {
		logger.Log.Errorf("[admin][records] list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load records"})
		return nil, false
	}
	return records, true
}
