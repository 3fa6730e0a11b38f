package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/gemini-media-studio/pkg/panel"
)

// maxUploadBytes はアップロード画像の上限です。
const maxUploadBytes = 20 << 20

type uploadedFile struct {
	file        io.Reader
	contentType string
}

// upload はマルチパートの image フィールドを読み込んでパネルに渡します。
func (s *Server) upload(c *gin.Context, load func(uploadedFile) error, state func() panel.State) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	header, err := c.FormFile("image")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()

	err = load(uploadedFile{file: f, contentType: header.Header.Get("Content-Type")})
	respondLoad(c, err, state())
}

// respondLoad は画像読み込みの結果を返します。読み込めない画像は 422 です。
func respondLoad(c *gin.Context, err error, state panel.State) {
	if err != nil && !errors.Is(err, panel.ErrBusy) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": state.Error,
			"data":    state,
		})
		return
	}
	respond(c, http.StatusOK, err, state)
}
