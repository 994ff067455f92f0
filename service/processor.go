package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/thakurdishanttt/Project-DocuLens/model"
	"github.com/thakurdishanttt/Project-DocuLens/pkg/logger"
	"github.com/thakurdishanttt/Project-DocuLens/schema"
)

// Messages surfaced to the caller when a document cannot be processed.
const (
	errCouldNotClassify = "Could not classify document"
	errNoContract       = "unknown document, please create your contract first"
)

type objectStorage interface {
	UploadDocument(ctx context.Context, orgID, docID, fileName string, reader io.Reader, size int64, contentType string) (string, string, error)
}

type documentParser interface {
	Parse(ctx context.Context, fileURL string) (string, error)
}

type documentClassifier interface {
	Classify(ctx context.Context, text string, categories []string) (*Classification, error)
}

type fieldExtractor interface {
	Extract(ctx context.Context, text string, schema model.Schema) (map[string]any, error)
}

// DocumentProcessor runs the upload-parse-classify-extract pipeline and
// records the outcome.
type DocumentProcessor struct {
	registry   *schema.Registry
	store      Store
	storage    objectStorage
	parser     documentParser
	classifier documentClassifier
	extractor  fieldExtractor
}

func NewDocumentProcessor(registry *schema.Registry, store Store, storage objectStorage,
	parser documentParser, classifier documentClassifier, extractor fieldExtractor) *DocumentProcessor {
	return &DocumentProcessor{
		registry:   registry,
		store:      store,
		storage:    storage,
		parser:     parser,
		classifier: classifier,
		extractor:  extractor,
	}
}

// Upload describes an incoming document.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
	UserID      string
	OrgID       string
}

// ProcessDocument runs the full pipeline for an upload. Domain failures
// (no matching category, no contract) are recorded on the returned document
// rather than returned as errors; infrastructure failures are errors.
func (p *DocumentProcessor) ProcessDocument(ctx context.Context, up Upload) (*model.Document, error) {
	doc := &model.Document{
		ID:       uuid.New().String(),
		FileName: up.FileName,
		FileType: up.ContentType,
		Status:   model.StatusPending,
		UserID:   up.UserID,
		OrgID:    up.OrgID,
	}

	objectName, fileURL, err := p.storage.UploadDocument(ctx, up.OrgID, doc.ID, up.FileName, up.Reader, up.Size, up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("uploading document: %w", err)
	}
	doc.StoragePath = objectName

	text, err := p.parser.Parse(ctx, fileURL)
	if err != nil {
		p.recordFailure(ctx, doc, fmt.Sprintf("failed to parse document: %v", err))
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	classification, err := p.classifier.Classify(ctx, text, p.registry.Types())
	if err != nil {
		p.recordFailure(ctx, doc, fmt.Sprintf("failed to classify document: %v", err))
		return nil, fmt.Errorf("classifying document: %w", err)
	}
	doc.DocumentType = classification.Category
	doc.Confidence = classification.Confidence

	if classification.Category == "unknown" {
		return p.recordFailure(ctx, doc, errCouldNotClassify)
	}

	contractSchema, err := p.registry.Resolve(classification.Category)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return p.recordFailure(ctx, doc, errNoContract)
		}
		return nil, fmt.Errorf("resolving contract: %w", err)
	}

	data, err := p.extractor.Extract(ctx, text, contractSchema)
	if err != nil {
		p.recordFailure(ctx, doc, fmt.Sprintf("failed to extract data: %v", err))
		return nil, fmt.Errorf("extracting data: %w", err)
	}
	doc.ExtractedData = data
	doc.Status = model.StatusProcessed
	doc.Error = ""

	if err := p.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	p.audit(ctx, doc, fmt.Sprintf("extracted %d fields as %s", len(data), doc.DocumentType))

	return doc, nil
}

// recordFailure marks the document failed and saves it. The save itself is
// best effort: the failure message matters more than the row.
func (p *DocumentProcessor) recordFailure(ctx context.Context, doc *model.Document, msg string) (*model.Document, error) {
	doc.Status = model.StatusFailed
	doc.Error = msg
	if err := p.store.SaveDocument(ctx, doc); err != nil {
		logger.Error(ctx, "failed to save failed document", "doc_id", doc.ID, "error", err)
	}
	return doc, nil
}

func (p *DocumentProcessor) audit(ctx context.Context, doc *model.Document, description string) {
	err := p.store.AppendAuditLog(ctx, model.AuditEntry{
		OrgID:       doc.OrgID,
		UserID:      doc.UserID,
		Action:      "EXTRACT_DATA",
		EntityID:    doc.ID,
		EntityType:  "document",
		Description: description,
	})
	if err != nil {
		logger.Warn(ctx, "failed to append audit log", "doc_id", doc.ID, "error", err)
	}
}

// GetStatus returns the processing status of a document.
func (p *DocumentProcessor) GetStatus(ctx context.Context, docID string) (*model.Document, error) {
	doc, err := p.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s not found", docID)
	}
	return doc, nil
}

// GetExtractedData returns the extracted fields of a finished document.
func (p *DocumentProcessor) GetExtractedData(ctx context.Context, docID string) (map[string]any, error) {
	doc, err := p.GetStatus(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusProcessed && doc.Status != model.StatusCompleted {
		return nil, fmt.Errorf("document %s is not processed yet (status: %s)", docID, doc.Status)
	}
	return doc.ExtractedData, nil
}
