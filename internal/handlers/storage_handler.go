package handlers

import (
	"net/http"

	"pos_manager/internal/services"

	"github.com/gin-gonic/gin"
)

type StorageHandler struct {
	storageService services.StorageService
}

func NewStorageHandler(storageService services.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

func (h *StorageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	publicURL, err := h.storageService.Upload(c.Param("bucket"), fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"public_url": publicURL})
}
