package main

import (
	"bytes"
	"net/http"
	"path"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

const (
	uploadPrefix    = "products/"
	thumbnailSize   = 256
	signedURLExpiry = 15 * time.Minute
)

type signUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

type completeUploadRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

func extensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// signUploadHandler hands the client a V4 signed PUT URL for a product image.
func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var req signUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		ext := extensionForContentType(req.ContentType)
		if ext == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content_type"})
			return
		}

		objectKey := uploadPrefix + utils.GenerateUniqueFilename() + ext
		signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.ContentType, signedURLExpiry)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, signed)
	}
}

// completeUploadHandler runs after the client PUT succeeds: it verifies the
// object landed and writes a thumbnail next to it.
func completeUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var req completeUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		if !strings.HasPrefix(req.ObjectKey, uploadPrefix) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object_key"})
			return
		}

		ctx := c.Request.Context()
		exists, err := utils.ObjectExistsInGCS(ctx, req.ObjectKey)
		if err != nil {
			writeModelError(c, err)
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}

		data, err := utils.DownloadBytesFromGCS(ctx, req.ObjectKey)
		if err != nil {
			writeModelError(c, err)
			return
		}
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded object is not a decodable image"})
			return
		}

		thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
			writeModelError(c, err)
			return
		}

		dir, file := path.Split(req.ObjectKey)
		thumbKey := dir + "thumb_" + strings.TrimSuffix(file, path.Ext(file)) + ".jpg"
		if err := utils.UploadBytesToGCS(ctx, thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
			writeModelError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"object_key":    req.ObjectKey,
			"access_url":    utils.BuildObjectAccessURL(req.ObjectKey),
			"thumbnail_key": thumbKey,
			"thumbnail_url": utils.BuildObjectAccessURL(thumbKey),
		})
	}
}
