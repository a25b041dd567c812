package handler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/cache"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const DefaultOffset = 0
const DefaultLimit = 100
const DefaultSortBy = ""
const DefaultSearch = ""
const DefaultFileType = ""
const MaxLimit = 200

func RegisterRoutes(ctx context.Context, engine *echo.Echo, coordinator *uploads.UploadCoordinator, daoReg *dao.DaoRegistry, cacheInst cache.Cache) {
	paths := []string{api.FullRootPath(), api.MajorRootPath()}
	for i := 0; i < len(paths); i++ {
		group := engine.Group(paths[i])

		RegisterFileRoutes(group, daoReg, coordinator, cacheInst)
		RegisterUploadRoutes(group, coordinator)
	}

	for _, route := range engine.Routes() {
		log.Ctx(ctx).Debug().Msgf("route: %s %s", route.Method, route.Path)
	}
}

func RegisterPing(engine *echo.Echo) {
	engine.GET("/ping", ping)
	engine.GET("/ping/", ping)
}

func ping(c echo.Context) error {
	return c.JSON(200, echo.Map{
		"message": "pong",
	})
}

func createLink(c echo.Context, offset int) string {
	req := c.Request()
	q := req.URL.Query()
	page := ParsePagination(c)
	filters := ParseFilters(c)

	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(offset))

	if filters.Search != "" {
		q.Set("search", filters.Search)
	}
	if filters.FileType != "" {
		q.Set("file_type", filters.FileType)
	}

	params, _ := url.PathUnescape(q.Encode())
	return fmt.Sprintf("%v?%v", req.URL.Path, params)
}

// setCollectionResponseMetadata determines metadata of collection response based on context and collection size.
// Returns collection response with updated metadata.
func setCollectionResponseMetadata(collection api.CollectionMetadataSettable, c echo.Context, totalCount int64) api.CollectionMetadataSettable {
	page := ParsePagination(c)
	var lastPage int
	if int(totalCount) > 0 && (int(totalCount)%page.Limit) == 0 {
		lastPage = int(totalCount) - page.Limit
	} else {
		lastPage = int(totalCount) - int(totalCount)%page.Limit
	}
	links := api.Links{
		First: createLink(c, 0),
		Last:  createLink(c, lastPage),
	}
	if page.Offset+page.Limit < int(totalCount) {
		links.Next = createLink(c, page.Offset+page.Limit)
	}
	if page.Offset-page.Limit >= 0 {
		links.Prev = createLink(c, page.Offset-page.Limit)
	}

	collection.SetMetadata(api.ResponseMetadata{
		Count:  totalCount,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, links)
	return collection
}

func ParsePagination(c echo.Context) api.PaginationData {
	pageData := api.PaginationData{Limit: DefaultLimit, Offset: DefaultOffset, SortBy: DefaultSortBy}
	err := echo.QueryParamsBinder(c).
		Int("limit", &pageData.Limit).
		Int("offset", &pageData.Offset).
		String("sort_by", &pageData.SortBy).
		BindError()

	if err != nil {
		log.Error().Err(err).Msg("Failed to bind pagination.")
	}

	if pageData.SortBy == DefaultSortBy {
		err = c.Request().ParseForm()
		if err != nil {
			log.Error().Err(err).Msg("Failed to bind pagination.")
		}
		q := c.Request().Form
		pageData.SortBy = strings.Join(q["sort_by[]"], ",")
	}

	if pageData.Limit > MaxLimit {
		pageData.Limit = MaxLimit
	}
	return pageData
}

func ParseFilters(c echo.Context) api.FilterData {
	filterData := api.FilterData{
		Search:   DefaultSearch,
		FileType: DefaultFileType,
	}
	err := echo.QueryParamsBinder(c).
		String("search", &filterData.Search).
		String("file_type", &filterData.FileType).
		BindError()

	if err != nil {
		log.Error().Err(err).Msg("Error parsing filters")
	}

	return filterData
}
