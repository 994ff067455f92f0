package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thakurdishanttt/Project-DocuLens/model"
	"github.com/thakurdishanttt/Project-DocuLens/schema"
)

type fakeStorage struct {
	uploaded string
	err      error
}

func (f *fakeStorage) UploadDocument(_ context.Context, orgID, docID, fileName string, _ io.Reader, _ int64, _ string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.uploaded = documentObjectName(orgID, docID, fileName)
	return f.uploaded, "http://storage.test/" + f.uploaded, nil
}

type fakeParser struct {
	text string
	err  error
}

func (f *fakeParser) Parse(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeClassifier struct {
	result *Classification
	err    error
	seen   []string
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, categories []string) (*Classification, error) {
	f.seen = categories
	return f.result, f.err
}

type fakeExtractor struct {
	data map[string]any
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string, model.Schema) (map[string]any, error) {
	return f.data, f.err
}

func newTestProcessor(t *testing.T, store *SQLiteStore, parser documentParser,
	classifier documentClassifier, extractor fieldExtractor) *DocumentProcessor {
	t.Helper()

	registry, err := schema.NewRegistry(context.Background(), store, "")
	require.NoError(t, err)

	return NewDocumentProcessor(registry, store, &fakeStorage{}, parser, classifier, extractor)
}

func seedContract(t *testing.T, store *SQLiteStore, docType string) {
	t.Helper()
	fields := `{"type":"object","properties":{"field_a":{"type":"string","description":"A field"}},"required":[]}`
	require.NoError(t, store.InsertUserContract(context.Background(), &model.Contract{
		Name:         docType,
		DocumentType: docType,
		Fields:       json.RawMessage(fields),
	}))
}

func TestProcessDocumentSuccess(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "invoice")

	classifier := &fakeClassifier{result: &Classification{Category: "invoice", Confidence: 0.9, Reason: "header"}}
	extractor := &fakeExtractor{data: map[string]any{"field_a": "value"}}
	proc := newTestProcessor(t, store, &fakeParser{text: "Invoice #42"}, classifier, extractor)

	doc, err := proc.ProcessDocument(context.Background(), Upload{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		Size:        11,
		Reader:      strings.NewReader("pdf content"),
		OrgID:       "org-1",
		UserID:      "user-1",
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, model.StatusProcessed, doc.Status)
	assert.Equal(t, "invoice", doc.DocumentType)
	assert.InDelta(t, 0.9, doc.Confidence, 1e-9)
	assert.Equal(t, "value", doc.ExtractedData["field_a"])
	assert.Equal(t, "org-1/"+doc.ID+"/invoice.pdf", doc.StoragePath)
	assert.Contains(t, classifier.seen, "invoice")

	// The outcome is persisted, and the audit trail recorded.
	saved, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, model.StatusProcessed, saved.Status)

	var audits int
	row := store.db.QueryRow("SELECT COUNT(*) FROM audit_logs WHERE entity_id = ?", doc.ID)
	require.NoError(t, row.Scan(&audits))
	assert.Equal(t, 1, audits)
}

func TestProcessDocumentUnclassifiable(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "invoice")

	classifier := &fakeClassifier{result: &Classification{Category: "unknown", Reason: "no match"}}
	proc := newTestProcessor(t, store, &fakeParser{text: "gibberish"}, classifier, &fakeExtractor{})

	doc, err := proc.ProcessDocument(context.Background(), Upload{
		FileName: "mystery.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, model.StatusFailed, doc.Status)
	assert.Equal(t, "Could not classify document", doc.Error)

	saved, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, model.StatusFailed, saved.Status)
}

func TestProcessDocumentNoContract(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "invoice")

	// The classifier picks a category that has no contract behind it.
	classifier := &fakeClassifier{result: &Classification{Category: "tax_return", Confidence: 0.7}}
	proc := newTestProcessor(t, store, &fakeParser{text: "1040 form"}, classifier, &fakeExtractor{})

	doc, err := proc.ProcessDocument(context.Background(), Upload{
		FileName: "tax.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, model.StatusFailed, doc.Status)
	assert.Equal(t, "unknown document, please create your contract first", doc.Error)
}

func TestProcessDocumentFuzzyContractMatch(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "employment_verification")

	// A typo'd classifier label still resolves to the stored contract.
	classifier := &fakeClassifier{result: &Classification{Category: "Employement Verification", Confidence: 0.8}}
	extractor := &fakeExtractor{data: map[string]any{"field_a": "Ada"}}
	proc := newTestProcessor(t, store, &fakeParser{text: "employment letter"}, classifier, extractor)

	doc, err := proc.ProcessDocument(context.Background(), Upload{
		FileName: "letter.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessed, doc.Status)
	assert.Equal(t, "Ada", doc.ExtractedData["field_a"])
}

func TestProcessDocumentParserFailure(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "invoice")

	proc := newTestProcessor(t, store, &fakeParser{err: errors.New("parser down")},
		&fakeClassifier{}, &fakeExtractor{})

	_, err := proc.ProcessDocument(context.Background(), Upload{
		FileName: "invoice.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing document")
}

func TestProcessDocumentUploadFailure(t *testing.T) {
	store := newTestStore(t)

	registry, err := schema.NewRegistry(context.Background(), store, "")
	require.NoError(t, err)

	proc := NewDocumentProcessor(registry, store, &fakeStorage{err: errors.New("bucket gone")},
		&fakeParser{}, &fakeClassifier{}, &fakeExtractor{})

	_, err = proc.ProcessDocument(context.Background(), Upload{
		FileName: "invoice.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading document")
}

func TestGetExtractedData(t *testing.T) {
	store := newTestStore(t)
	seedContract(t, store, "invoice")

	classifier := &fakeClassifier{result: &Classification{Category: "invoice", Confidence: 1}}
	extractor := &fakeExtractor{data: map[string]any{"field_a": "42"}}
	proc := newTestProcessor(t, store, &fakeParser{text: "Invoice"}, classifier, extractor)

	doc, err := proc.ProcessDocument(context.Background(), Upload{
		FileName: "invoice.pdf",
		Reader:   strings.NewReader("x"),
	})
	require.NoError(t, err)

	data, err := proc.GetExtractedData(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", data["field_a"])

	// Pending and failed documents expose no data.
	pending := &model.Document{FileName: "later.pdf", Status: model.StatusPending}
	require.NoError(t, store.SaveDocument(context.Background(), pending))
	_, err = proc.GetExtractedData(context.Background(), pending.ID)
	assert.Error(t, err)

	_, err = proc.GetExtractedData(context.Background(), "missing-doc")
	assert.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	store := newTestStore(t)

	registry, err := schema.NewRegistry(context.Background(), store, "")
	require.NoError(t, err)
	proc := NewDocumentProcessor(registry, store, &fakeStorage{}, &fakeParser{}, &fakeClassifier{}, &fakeExtractor{})

	doc := &model.Document{FileName: "a.pdf", Status: model.StatusPending}
	require.NoError(t, store.SaveDocument(context.Background(), doc))

	got, err := proc.GetStatus(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	_, err = proc.GetStatus(context.Background(), "nope")
	assert.Error(t, err)
}
