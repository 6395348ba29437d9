package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/jurisprudence/internal/batch"
	"github.com/joseph-ayodele/jurisprudence/internal/common"
)

const multipartMemory = 32 << 20

func (h *handler) parseMultipart(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMessage(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Fichiers trop volumineux")
			return nil, false
		}
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Formulaire multipart invalide")
		return nil, false
	}
	return c.Request.MultipartForm, true
}

func uploadFile(fh *multipart.FileHeader) batch.UploadFile {
	return batch.UploadFile{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (h *handler) uploadBatch(c *gin.Context) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	files := make([]batch.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFile(fh))
	}

	ctx := c.Request.Context()
	res, err := h.cfg.Batch.Upload(ctx, files, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *handler) processBatch(c *gin.Context) {
	var req batch.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Requête JSON invalide")
		return
	}
	ctx := common.WithBatchID(c.Request.Context(), req.BatchID)
	res, err := h.cfg.Batch.Process(ctx, req, common.ActorIDFromContext(ctx))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *handler) batchStatus(c *gin.Context) {
	res, err := h.cfg.Batch.Status(c.Request.Context(), c.Param("batch_id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *handler) cleanupBatch(c *gin.Context) {
	if err := h.cfg.Batch.Cleanup(c.Request.Context(), c.Param("batch_id")); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "Batch nettoyé avec succès"})
}

// missingRefResponse carries what was extracted so the user can see why
// no reference was found.
type missingRefResponse struct {
	Error         APIError          `json:"error"`
	ExtractedData map[string]string `json:"extracted_data"`
}

func (h *handler) importSingle(c *gin.Context) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		respondMessage(c, http.StatusBadRequest, "INVALID_INPUT", "Aucun fichier fourni")
		return
	}

	ctx := c.Request.Context()
	out, err := h.cfg.Batch.ImportSingle(ctx, uploadFile(headers[0]), common.ActorIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, common.ErrMissingRef) && out != nil && out.Result != nil {
			c.JSON(http.StatusBadRequest, missingRefResponse{Error: apiError(err), ExtractedData: out.Result.Fields})
			return
		}
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Cas importé avec succès", "case": out.Case})
}
