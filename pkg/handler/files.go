package handler

import (
	"fmt"
	"net/http"

	"github.com/file-drop/file-drop-backend/pkg/cache"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type FilesHandler struct {
	Dao         dao.DaoRegistry
	Coordinator *uploads.UploadCoordinator
	Cache       cache.Cache
}

func RegisterFileRoutes(engine *echo.Group, daoReg *dao.DaoRegistry, coordinator *uploads.UploadCoordinator, cacheInst cache.Cache) {
	fh := FilesHandler{Dao: *daoReg, Coordinator: coordinator, Cache: cacheInst}

	engine.GET("/files/", fh.listFiles)
	engine.POST("/files/", fh.uploadFile)
	engine.GET("/files/:uuid", fh.fetchFile)
	engine.GET("/files/:uuid/download", fh.downloadFile)
	engine.DELETE("/files/:uuid", fh.deleteFile)
}

func (fh *FilesHandler) listFiles(c echo.Context) error {
	pageData := ParsePagination(c)
	filterData := ParseFilters(c)

	records, totalRecords, err := fh.Dao.FileRecord.List(c.Request().Context(), pageData, filterData)
	if err != nil {
		return ce.NewErrorResponseFromError("Error listing file records", err)
	}

	return c.JSON(http.StatusOK, setCollectionResponseMetadata(&records, c, totalRecords))
}

// uploadFile is the non-chunked path for files at or below the chunk-size
// threshold: one multipart request, stored and recorded directly.
func (fh *FilesHandler) uploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing upload", "multipart field 'file' is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return ce.NewErrorResponseFromError("Error reading upload", err)
	}
	defer src.Close()

	record, err := fh.Coordinator.SubmitSmallFile(c.Request().Context(), fileHeader.Filename, src)
	if err != nil {
		return ce.NewErrorResponseFromError("Error storing file", err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (fh *FilesHandler) fetchFile(c echo.Context) error {
	uuid := c.Param("uuid")
	ctx := c.Request().Context()

	if cached, err := fh.Cache.GetFileRecord(ctx, uuid); err == nil {
		return c.JSON(http.StatusOK, *cached)
	} else if err != cache.NotFound {
		log.Ctx(ctx).Warn().Err(err).Msg("file record cache read failed")
	}

	record, err := fh.Dao.FileRecord.Fetch(ctx, uuid)
	if err != nil {
		return ce.NewErrorResponseFromError("Error fetching file record", err)
	}

	if err := fh.Cache.SetFileRecord(ctx, uuid, record); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("file record cache write failed")
	}
	return c.JSON(http.StatusOK, record)
}

func (fh *FilesHandler) downloadFile(c echo.Context) error {
	uuid := c.Param("uuid")

	record, content, err := fh.Coordinator.OpenFile(c.Request().Context(), uuid)
	if err != nil {
		return ce.NewErrorResponseFromError("Error opening stored file", err)
	}
	defer content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, record.OriginalFilename))
	return c.Stream(http.StatusOK, record.FileType, content)
}

func (fh *FilesHandler) deleteFile(c echo.Context) error {
	uuid := c.Param("uuid")
	ctx := c.Request().Context()

	if err := fh.Coordinator.DeleteFile(ctx, uuid); err != nil {
		return ce.NewErrorResponseFromError("Error deleting file", err)
	}

	if err := fh.Cache.DeleteFileRecord(ctx, uuid); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("file record cache invalidation failed")
	}
	return c.NoContent(http.StatusNoContent)
}
