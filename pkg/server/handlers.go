package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/gemini-media-studio/pkg/blob"
	"github.com/shouni/gemini-media-studio/pkg/credential"
	"github.com/shouni/gemini-media-studio/pkg/panel"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type imageURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

// respond はパネル操作の結果をステータスコードと状態に変換します。
func respond(c *gin.Context, status int, err error, state panel.State) {
	if err != nil {
		status = statusOf(err)
	}
	message := state.Error
	if err != nil && message == "" {
		message = err.Error()
	}
	c.JSON(status, gin.H{
		"success": err == nil,
		"message": message,
		"data":    state,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, panel.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, panel.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, credential.ErrSelectionUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusBadGateway
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}

// --- edit ---

func (s *Server) getEdit(c *gin.Context) {
	respond(c, http.StatusOK, nil, s.deps.Edit.State())
}

func (s *Server) submitEdit(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.deps.Edit.Submit(c.Request.Context(), req.Prompt)
	respond(c, http.StatusOK, err, s.deps.Edit.State())
}

func (s *Server) uploadEditImage(c *gin.Context) {
	s.upload(c, func(r uploadedFile) error {
		return s.deps.Edit.LoadReader(c.Request.Context(), r.file, r.contentType)
	}, s.deps.Edit.State)
}

func (s *Server) loadEditImageURL(c *gin.Context) {
	var req imageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.deps.Edit.LoadURL(c.Request.Context(), req.URL)
	respondLoad(c, err, s.deps.Edit.State())
}

// --- generate ---

func (s *Server) getGenerate(c *gin.Context) {
	respond(c, http.StatusOK, nil, s.deps.Image.State())
}

func (s *Server) submitGenerate(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.deps.Image.Submit(c.Request.Context(), req.Prompt)
	respond(c, http.StatusOK, err, s.deps.Image.State())
}

// --- video ---

func (s *Server) getVideo(c *gin.Context) {
	if !s.deps.Video.Busy() {
		s.deps.Video.CheckCredential(c.Request.Context())
	}
	respond(c, http.StatusOK, nil, s.deps.Video.State())
}

func (s *Server) startVideo(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	_, err := s.deps.Video.Start(s.baseCtx, req.Prompt)
	respond(c, http.StatusAccepted, err, s.deps.Video.State())
}

func (s *Server) cancelVideo(c *gin.Context) {
	cancelled := s.deps.Video.Cancel()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    gin.H{"cancelled": cancelled},
	})
}

func (s *Server) selectCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if s.deps.Credentials != nil {
		s.deps.Credentials.Offer(req.APIKey)
	}
	err := s.deps.Video.SelectCredential(c.Request.Context())
	respond(c, http.StatusOK, err, s.deps.Video.State())
}

func (s *Server) uploadVideoImage(c *gin.Context) {
	s.upload(c, func(r uploadedFile) error {
		return s.deps.Video.LoadReader(c.Request.Context(), r.file, r.contentType)
	}, s.deps.Video.State)
}

func (s *Server) loadVideoImageURL(c *gin.Context) {
	var req imageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.deps.Video.LoadURL(c.Request.Context(), req.URL)
	respondLoad(c, err, s.deps.Video.State())
}

// --- media ---

func (s *Server) getBlob(c *gin.Context) {
	b, err := s.deps.Blobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, b.MimeType, b.Data)
}
