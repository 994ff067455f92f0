package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thakurdishanttt/Project-DocuLens/middleware"
	"github.com/thakurdishanttt/Project-DocuLens/model"
	"github.com/thakurdishanttt/Project-DocuLens/pkg/validate"
	"github.com/thakurdishanttt/Project-DocuLens/service"
)

// allowedExtensions maps accepted upload extensions to their content types.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// DocumentProcessor is the slice of the processing pipeline the handler needs.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, up service.Upload) (*model.Document, error)
	GetStatus(ctx context.Context, docID string) (*model.Document, error)
	GetExtractedData(ctx context.Context, docID string) (map[string]any, error)
}

// UserDirectory resolves an email (and optional organization name) to ids.
type UserDirectory interface {
	EnsureUserOrg(ctx context.Context, email, orgName string) (string, string, error)
}

type DocumentHandler struct {
	processor DocumentProcessor
	users     UserDirectory
}

func NewDocumentHandler(processor DocumentProcessor, users UserDirectory) *DocumentHandler {
	return &DocumentHandler{
		processor: processor,
		users:     users,
	}
}

// Process handles document upload and runs the extraction pipeline
func (h *DocumentHandler) Process(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	expectedContentType, ok := allowedExtensions[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and image files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		// Sniff the content when the client did not say
		buffer := make([]byte, 512)
		n, err := file.Read(buffer)
		if err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		file.Seek(0, io.SeekStart)

		detectedType := http.DetectContentType(buffer[:n])
		if detectedType == "application/octet-stream" {
			detectedType = expectedContentType
		}
		contentType = detectedType
	}

	userID := ""
	orgID := middleware.GetOrg(c)

	// An explicit email attributes the document to a user account,
	// optionally moving them into the named organization.
	if email := c.PostForm("email"); email != "" {
		if !validate.IsEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		uid, oid, err := h.users.EnsureUserOrg(c.Request.Context(), email, c.PostForm("org_name"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user: " + err.Error()})
			return
		}
		userID = uid
		if oid != "" {
			orgID = oid
		}
	}

	doc, err := h.processor.ProcessDocument(c.Request.Context(), service.Upload{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      file,
		UserID:      userID,
		OrgID:       orgID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document: " + err.Error()})
		return
	}

	response := gin.H{
		"id":            doc.ID,
		"file_name":     doc.FileName,
		"document_type": doc.DocumentType,
		"confidence":    doc.Confidence,
		"status":        doc.Status,
	}
	if doc.Error != "" {
		response["error"] = doc.Error
	}
	if doc.ExtractedData != nil {
		response["extracted_data"] = doc.ExtractedData
	}
	c.JSON(http.StatusOK, response)
}

// Status returns the processing status of a document
func (h *DocumentHandler) Status(c *gin.Context) {
	doc, err := h.processor.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"id":            doc.ID,
		"file_name":     doc.FileName,
		"document_type": doc.DocumentType,
		"confidence":    doc.Confidence,
		"status":        doc.Status,
		"created_at":    doc.CreatedAt,
		"updated_at":    doc.UpdatedAt,
	}
	if doc.Error != "" {
		response["error"] = doc.Error
	}
	c.JSON(http.StatusOK, response)
}

// Data returns the extracted fields of a processed document
func (h *DocumentHandler) Data(c *gin.Context) {
	data, err := h.processor.GetExtractedData(c.Request.Context(), c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   c.Param("id"),
		"data": data,
	})
}
