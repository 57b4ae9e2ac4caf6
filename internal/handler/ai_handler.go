package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/filestore"
	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/service"
)

type AIHandler struct {
	ai    *service.AIService
	chat  *service.ChatService
	blobs filestore.Store
}

func NewAIHandler(ai *service.AIService, chat *service.ChatService, blobs filestore.Store) *AIHandler {
	return &AIHandler{ai: ai, chat: chat, blobs: blobs}
}

// diagramRequest accepts the diagram kind under either field name;
// "type" is the older spelling some clients still send.
type diagramRequest struct {
	Content     string `json:"content"`
	DiagramType string `json:"diagram_type"`
	Type        string `json:"type"`
}

type roadmapRequest struct {
	Content  string `json:"content"`
	Duration string `json:"duration"`
}

type resourcesRequest struct {
	Content string `json:"content"`
	Count   int    `json:"count"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	FileID    string `json:"file_id"`
	// IncludeHistory defaults to true when absent.
	IncludeHistory *bool `json:"include_history"`
}

func (h *AIHandler) Diagram(c *gin.Context) {
	var req diagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	diagramType := req.DiagramType
	if diagramType == "" {
		diagramType = req.Type
	}
	result, err := h.ai.Diagram(c.Request.Context(), req.Content, diagramType)
	if err != nil {
		handleError(c, err)
		return
	}
	out := gin.H{
		"provider": result.Provider,
		"mock":     result.Mock,
	}
	if result.ImageKey != "" {
		out["image_url"] = h.blobs.URL(result.ImageKey, requestBaseURL(c))
		out["mime_type"] = result.MimeType
	} else {
		out["mermaid"] = result.Mermaid
	}
	response.Success(c, out)
}

func (h *AIHandler) Roadmap(c *gin.Context) {
	var req roadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.ai.Roadmap(c.Request.Context(), req.Content, req.Duration)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Resources(c *gin.Context) {
	var req resourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.ai.Resources(c.Request.Context(), req.Content, req.Count)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	includeHistory := req.IncludeHistory == nil || *req.IncludeHistory
	result, err := h.chat.Chat(c.Request.Context(), req.Message, req.SessionID, req.FileID, includeHistory)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AIHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok", "service": "ai"})
}

func (h *AIHandler) ChatHistory(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context(), c.Param("session_id"), 0)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": messages})
}

func (h *AIHandler) ClearChatHistory(c *gin.Context) {
	deleted, err := h.chat.ClearSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
