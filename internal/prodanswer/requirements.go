package prodanswer

import (
	"context"
	"net/url"
	"strings"
)

const (
	requirementsPath = "/v1/requirements/"
	fileUploadsPath  = "/v1/file-uploads/"

	RequirementTypeText = "text"
	RequirementTypeFile = "file"

	RequirementPending    = "pending"
	RequirementProcessing = "processing"
	RequirementCompleted  = "completed"
	RequirementFailed     = "failed"
)

type RequirementItem struct {
	ID        string `json:"id"`
	ItemText  string `json:"item_text"`
	ItemOrder int    `json:"item_order"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Requirement struct {
	ID              string             `json:"id"`
	SessionID       string             `json:"session_id,omitempty"`
	Title           string             `json:"title,omitempty"`
	RequirementText string             `json:"requirement_text,omitempty"`
	RequirementType string             `json:"requirement_type"`
	SourceFileName  string             `json:"source_file_name,omitempty"`
	Status          string             `json:"status"`
	CreatedBy       string             `json:"created_by,omitempty"`
	ItemsCount      int                `json:"items_count,omitempty"`
	Items           []*RequirementItem `json:"items,omitempty"`
	CreatedAt       string             `json:"created_at,omitempty"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
}

type RequirementInput struct {
	Title           string `json:"title,omitempty"`
	RequirementText string `json:"requirement_text"`
	RequirementType string `json:"requirement_type"`
	CreatedBy       string `json:"created_by,omitempty"`
}

type RequirementItems struct {
	RequirementID string             `json:"requirement_id"`
	Items         []*RequirementItem `json:"items"`
	TotalItems    int                `json:"total_items"`
}

type ProcessResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type uploadResponse struct {
	Status      string       `json:"status"`
	Message     string       `json:"message"`
	Requirement *Requirement `json:"requirement"`
}

type FileFormat struct {
	Extensions  []string `json:"extensions"`
	MimeTypes   []string `json:"mime_types"`
	Description string   `json:"description"`
}

type SupportedFormats struct {
	Formats     map[string]*FileFormat `json:"supported_formats"`
	MaxFileSize string                 `json:"max_file_size"`
}

// Done reports whether the backend finished with the requirement either way.
func (r *Requirement) Done() bool {
	return r.Status == RequirementCompleted || r.Status == RequirementFailed
}

// CreateRequirement creates a text requirement. File requirements go through UploadRequirement.
func (c *Client) CreateRequirement(ctx context.Context, in *RequirementInput) (*Requirement, error) {
	if in == nil {
		return nil, invalidArgument("requirement is required")
	}

	body := *in
	if body.RequirementType == "" {
		body.RequirementType = RequirementTypeText
	}
	if body.RequirementType == RequirementTypeFile {
		return nil, invalidArgument("use file upload endpoint for file-type requirements")
	}
	if body.RequirementType != RequirementTypeText {
		return nil, invalidArgument("unknown requirement type %q", body.RequirementType)
	}
	if strings.TrimSpace(body.RequirementText) == "" {
		return nil, invalidArgument("requirement text cannot be empty")
	}

	var requirement Requirement
	if err := c.postJSON(ctx, requirementsPath, &body, &requirement); err != nil {
		return nil, err
	}
	return &requirement, nil
}

func (c *Client) GetRequirement(ctx context.Context, id string) (*Requirement, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var requirement Requirement
	if err := c.getJSON(ctx, requirementsPath+escaped+"/", nil, &requirement); err != nil {
		return nil, err
	}
	return &requirement, nil
}

func (c *Client) ListRequirements(ctx context.Context, q url.Values) (*Page[*Requirement], error) {
	var page Page[*Requirement]
	if err := c.getJSON(ctx, requirementsPath, q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetRequirementItems(ctx context.Context, id string) (*RequirementItems, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var items RequirementItems
	if err := c.getJSON(ctx, requirementsPath+escaped+"/items/", nil, &items); err != nil {
		return nil, err
	}
	return &items, nil
}

// ProcessRequirement generates embeddings for the requirement items.
func (c *Client) ProcessRequirement(ctx context.Context, id string) (*ProcessResult, error) {
	escaped, err := pathID(id)
	if err != nil {
		return nil, err
	}

	var result ProcessResult
	if err := c.postJSON(ctx, requirementsPath+escaped+"/process/", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadRequirement uploads a requirement document which the backend splits into items.
func (c *Client) UploadRequirement(ctx context.Context, file *Upload, createdBy, title string) (*Requirement, error) {
	if file == nil || file.Reader == nil || strings.TrimSpace(file.Name) == "" {
		return nil, invalidArgument("file is required")
	}

	fields := map[string]string{
		"created_by": strings.TrimSpace(createdBy),
		"title":      strings.TrimSpace(title),
	}

	var response uploadResponse
	if err := c.postMultipart(ctx, fileUploadsPath+"upload/", fields, file, &response); err != nil {
		return nil, err
	}
	if response.Requirement == nil {
		return nil, invalidArgument("backend returned no requirement for %s", file.Name)
	}
	return response.Requirement, nil
}

// ParseRequirementText splits free text into requirement items on the backend.
func (c *Client) ParseRequirementText(ctx context.Context, text, createdBy, title string) (*Requirement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidArgument("requirement text cannot be empty")
	}

	body := &RequirementInput{
		Title:           strings.TrimSpace(title),
		RequirementText: text,
		RequirementType: RequirementTypeText,
		CreatedBy:       strings.TrimSpace(createdBy),
	}

	var requirement Requirement
	if err := c.postJSON(ctx, fileUploadsPath+"parse_text/", body, &requirement); err != nil {
		return nil, err
	}
	return &requirement, nil
}

func (c *Client) SupportedFormats(ctx context.Context) (*SupportedFormats, error) {
	var formats SupportedFormats
	if err := c.getJSON(ctx, fileUploadsPath+"supported_formats/", nil, &formats); err != nil {
		return nil, err
	}
	return &formats, nil
}
