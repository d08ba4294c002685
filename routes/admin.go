package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/corpus"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/vectorindex"
	"hr-rag-assistant/middleware"
	"hr-rag-assistant/models"
	"hr-rag-assistant/services"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	admin := router.Group("/admin")
	requireAdmin := middleware.RequireAdmin(deps.Auth)

	auditAction := func(action string) gin.HandlerFunc {
		return middleware.AuditMiddleware(deps.Audit, deps.Metrics, action)
	}

	admin.POST("/upload",
		auditAction(audit.ActionUpload),
		requireAdmin,
		middleware.RequestSizeLimit(cfg.MaxFileSize+(1<<20)),
		func(c *gin.Context) {
			fileHeader, err := c.FormFile("file")
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds maximum size", gin.H{"max_size": cfg.MaxFileSize})
					return
				}
				utils.RespondWithBadRequest(c, "A file must be uploaded in the 'file' field", nil)
				return
			}
			middleware.SetAuditResource(c, fileHeader.Filename)

			if fileHeader.Size > cfg.MaxFileSize {
				utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds maximum size", gin.H{"max_size": cfg.MaxFileSize})
				return
			}

			ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
			if !slices.Contains(cfg.AllowedExtensions, ext) {
				utils.RespondWithBadRequest(c, "Unsupported file type", gin.H{"allowed": cfg.AllowedExtensions})
				return
			}

			file, err := fileHeader.Open()
			if err != nil {
				utils.RespondWithBadRequest(c, "Could not read uploaded file", nil)
				return
			}
			defer file.Close()

			// Finish the mutation even if the client disconnects mid-rebuild.
			ctx := context.WithoutCancel(c.Request.Context())
			res, err := deps.Corpus.AddDocument(ctx, fileHeader.Filename, file)
			if err != nil {
				respondMutationError(c, err)
				return
			}

			middleware.SetAuditResource(c, res.Name)
			c.JSON(http.StatusOK, models.UploadResponse{
				Message:  fmt.Sprintf("%s uploaded and indexed successfully", res.Name),
				Filename: res.Name,
				Passages: res.Passages,
			})
		})

	admin.GET("/documents", requireAdmin, func(c *gin.Context) {
		names, err := deps.Corpus.ListDocuments()
		if err != nil {
			logger.Error("Failed to list documents", "error", err, "request_id", middleware.GetRequestID(c))
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}
		c.JSON(http.StatusOK, names)
	})

	admin.DELETE("/delete/:filename",
		auditAction(audit.ActionDelete),
		requireAdmin,
		func(c *gin.Context) {
			err := deps.Corpus.DeleteDocument(c.Param("filename"))
			switch {
			case err == nil:
				c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
			case errors.Is(err, corpus.ErrNotFound), errors.Is(err, corpus.ErrInvalidName):
				c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			default:
				logger.Error("Failed to delete document", "error", err, "request_id", middleware.GetRequestID(c))
				utils.RespondWithInternalError(c, "Failed to delete document", nil)
			}
		})

	admin.POST("/rebuild",
		auditAction(audit.ActionRebuild),
		requireAdmin,
		func(c *gin.Context) {
			middleware.SetAuditResource(c, "index")

			n, err := deps.Corpus.Rebuild(context.WithoutCancel(c.Request.Context()))
			if err != nil {
				respondMutationError(c, err)
				return
			}
			c.JSON(http.StatusOK, models.RebuildResponse{Message: "Index rebuilt successfully", Passages: n})
		})
}

func respondMutationError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	switch {
	case errors.Is(err, corpus.ErrInvalidName):
		utils.RespondWithBadRequest(c, "Invalid file name", nil)
	case errors.Is(err, services.ErrInvalidDocument):
		utils.RespondWithBadRequest(c, "The document could not be read", gin.H{"error": err.Error()})
	case errors.Is(err, vectorindex.ErrEmptyCorpus):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "empty_corpus", "The corpus contains no extractable text", nil)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		logger.Error("Corpus mutation upstream failure", "error", err, "request_id", requestID)
		utils.RespondWithServiceUnavailable(c, "upstream_unavailable", "Indexing is temporarily unavailable. Please try again later.")
	default:
		logger.Error("Corpus mutation failed", "error", err, "request_id", requestID)
		utils.RespondWithInternalError(c, "Failed to update the corpus", nil)
	}
}
