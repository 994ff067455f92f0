package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thakurdishanttt/Project-DocuLens/middleware"
	"github.com/thakurdishanttt/Project-DocuLens/model"
	"github.com/thakurdishanttt/Project-DocuLens/pkg/logger"
	"github.com/thakurdishanttt/Project-DocuLens/schema"
	"github.com/thakurdishanttt/Project-DocuLens/service"
)

// ContractReloader refreshes the resolvable contract set after a mutation.
type ContractReloader interface {
	Reload(ctx context.Context) error
}

type ContractHandler struct {
	store    service.Store
	registry ContractReloader
}

func NewContractHandler(store service.Store, registry ContractReloader) *ContractHandler {
	return &ContractHandler{
		store:    store,
		registry: registry,
	}
}

// reload refreshes the registry after a contract mutation. A failed reload
// leaves the previous contract set serving, so it is logged, not fatal.
func (h *ContractHandler) reload(c *gin.Context) {
	if err := h.registry.Reload(c.Request.Context()); err != nil {
		logger.Warn(c.Request.Context(), "contract reload failed", "error", err)
	}
}

// ListTemplates returns the system contract templates
func (h *ContractHandler) ListTemplates(c *gin.Context) {
	templates, err := h.store.ListTemplates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates: " + err.Error()})
		return
	}

	result := make([]gin.H, len(templates))
	for i, t := range templates {
		result[i] = gin.H{
			"id":            t.ID,
			"name":          t.Name,
			"document_type": t.DocumentType,
		}
	}
	c.JSON(http.StatusOK, gin.H{"templates": result})
}

// GetTemplate returns one template with its fields in canonical schema form
func (h *ContractHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.store.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get template: " + err.Error()})
		return
	}
	if tmpl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	fields, err := schema.DecodeShape(tmpl.Fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Template fields are malformed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            tmpl.ID,
		"name":          tmpl.Name,
		"document_type": tmpl.DocumentType,
		"fields":        fields,
	})
}

// List returns the contracts of the caller's organization
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.store.ListUserContracts(c.Request.Context(), middleware.GetOrg(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts: " + err.Error()})
		return
	}

	result := make([]gin.H, len(contracts))
	for i, ct := range contracts {
		result[i] = gin.H{
			"id":            ct.ID,
			"name":          ct.Name,
			"document_type": ct.DocumentType,
			"version":       ct.Version,
			"created_at":    ct.CreatedAt,
			"updated_at":    ct.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns one contract with its fields in canonical schema form
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.store.GetUserContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contract: " + err.Error()})
		return
	}
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	fields, err := schema.DecodeShape(contract.Fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Contract fields are malformed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            contract.ID,
		"name":          contract.Name,
		"document_type": contract.DocumentType,
		"version":       contract.Version,
		"fields":        fields,
		"created_at":    contract.CreatedAt,
		"updated_at":    contract.UpdatedAt,
	})
}

type createContractRequest struct {
	Name         string          `json:"name" binding:"required"`
	DocumentType string          `json:"document_type" binding:"required"`
	Fields       json.RawMessage `json:"fields" binding:"required"`
}

// Create stores a new contract after validating its field definitions
func (h *ContractHandler) Create(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	docType := normalizeDocumentType(req.DocumentType)

	// Contracts created directly must define their own properties; only
	// template-backed contracts may omit them.
	if ok, msg := schema.ValidateRaw(req.Fields, ""); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	contract := &model.Contract{
		OrgID:        middleware.GetOrg(c),
		UserID:       middleware.GetUsername(c),
		Name:         req.Name,
		DocumentType: docType,
		Fields:       req.Fields,
	}
	if err := h.store.InsertUserContract(c.Request.Context(), contract); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}

	h.reload(c)

	c.JSON(http.StatusCreated, gin.H{
		"id":            contract.ID,
		"name":          contract.Name,
		"document_type": contract.DocumentType,
		"version":       contract.Version,
	})
}

type copyTemplateRequest struct {
	TemplateID          string                 `json:"template_id" binding:"required"`
	NewName             string                 `json:"new_name" binding:"required"`
	FieldCustomizations map[string]model.Field `json:"field_customizations"`
}

// CopyTemplate creates a contract from a system template, optionally
// overriding individual field definitions
func (h *ContractHandler) CopyTemplate(c *gin.Context) {
	var req copyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	tmpl, err := h.store.GetTemplate(c.Request.Context(), req.TemplateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get template: " + err.Error()})
		return
	}
	if tmpl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	fields, err := schema.DecodeShape(tmpl.Fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Template fields are malformed"})
		return
	}

	for name, override := range req.FieldCustomizations {
		field, ok := fields.Properties.Get(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown field '" + name + "' in customizations"})
			return
		}
		if override.Type != "" {
			field.Type = override.Type
		}
		if override.Description != "" {
			field.Description = override.Description
		}
		fields.Properties.Set(name, field)
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode contract fields"})
		return
	}

	contract := &model.Contract{
		OrgID:        middleware.GetOrg(c),
		UserID:       middleware.GetUsername(c),
		Name:         req.NewName,
		DocumentType: normalizeDocumentType(req.NewName),
		TemplateID:   tmpl.ID,
		Fields:       encoded,
	}
	if err := h.store.InsertUserContract(c.Request.Context(), contract); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}

	h.reload(c)

	c.JSON(http.StatusCreated, gin.H{
		"id":                 contract.ID,
		"name":               contract.Name,
		"document_type":      contract.DocumentType,
		"system_contract_id": contract.TemplateID,
	})
}

// Delete soft-deletes a contract
func (h *ContractHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteUserContract(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return
	}

	h.reload(c)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Reload forces a refresh of the resolvable contract set
func (h *ContractHandler) Reload(c *gin.Context) {
	if err := h.registry.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload contracts: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reloaded": true})
}

// ActiveTemplate returns the currently selected template
func (h *ContractHandler) ActiveTemplate(c *gin.Context) {
	tmpl, err := h.store.ActiveTemplate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get active template: " + err.Error()})
		return
	}
	if tmpl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active template selected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            tmpl.ID,
		"name":          tmpl.Name,
		"document_type": tmpl.DocumentType,
	})
}

// SelectActiveTemplate marks a template as the active one
func (h *ContractHandler) SelectActiveTemplate(c *gin.Context) {
	if err := h.store.SelectActiveTemplate(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": c.Param("id")})
}

// normalizeDocumentType turns a display name into a document type key.
func normalizeDocumentType(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(key, " ", "_")
}
