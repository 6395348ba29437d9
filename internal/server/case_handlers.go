package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/cases"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func caseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Identifiant de cas invalide")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func (h *handler) listCases(c *gin.Context) {
	page, err := h.cfg.Cases.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "per_page", 20))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, page)
}

func (h *handler) getCase(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}
	rec, err := h.cfg.Cases.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, rec)
}

func (h *handler) createCase(c *gin.Context) {
	var in cases.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}
	ctx := c.Request.Context()
	rec, err := h.cfg.Cases.Create(ctx, in, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Cas de jurisprudence créé avec succès", "case": rec})
}

func (h *handler) updateCase(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}
	var in cases.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}
	rec, err := h.cfg.Cases.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Cas mis à jour avec succès", "case": rec})
}

func (h *handler) deleteCase(c *gin.Context) {
	id, ok := caseID(c)
	if !ok {
		return
	}
	if err := h.cfg.Cases.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Cas supprimé avec succès"})
}

func (h *handler) deleteAllCases(c *gin.Context) {
	n, err := h.cfg.Cases.DeleteAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": fmt.Sprintf("%d cas supprimés avec succès", n), "count": n})
}

type deleteSelectedRequest struct {
	CaseIDs []int64 `json:"case_ids"`
}

func (h *handler) deleteSelectedCases(c *gin.Context) {
	var req deleteSelectedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}
	if len(req.CaseIDs) == 0 {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Aucun cas sélectionné")
		return
	}
	n, err := h.cfg.Cases.DeleteSelected(c.Request.Context(), req.CaseIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": fmt.Sprintf("%d cas supprimé(s) avec succès", n), "count": n})
}

func (h *handler) caseStats(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.cfg.Cases.Stats(ctx, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, st)
}

func (h *handler) userStats(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.cfg.Cases.UserStats(ctx, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, st)
}

func (h *handler) exportCases(c *gin.Context) {
	data, err := h.cfg.Sheets.ExportCasesXLSX(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	name := fmt.Sprintf("jurisprudence_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *handler) importCases(c *gin.Context) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Aucun fichier fourni")
		return
	}
	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	rep, err := h.cfg.Sheets.ImportCases(ctx, filepath.Base(fh.Filename), f, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, rep)
}
