package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/apps/storefront/service"
	"go-jewelry/pkg/errx"
	"go-jewelry/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxMediaBytes = 50 << 20

type OrnamentHandler struct {
	catalog *service.CatalogService
}

func NewOrnamentHandler(catalog *service.CatalogService) *OrnamentHandler {
	return &OrnamentHandler{catalog: catalog}
}

// currency 请求币种，默认本位币
func currency(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Query("currency")))
}

// List GET /ornaments
func (h *OrnamentHandler) List(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	list, err := h.catalog.ListOrnaments(c.Request.Context(), f, currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, list)
}

// Get GET /ornaments/:id
func (h *OrnamentHandler) Get(c *gin.Context) {
	detail, err := h.catalog.GetOrnament(c.Request.Context(), c.Param("id"), currency(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, detail)
}

// Create POST /ornaments
func (h *OrnamentHandler) Create(c *gin.Context) {
	var o model.Ornament
	if err := c.ShouldBindJSON(&o); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.catalog.CreateOrnament(c.Request.Context(), &o)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, created)
}

// Update PUT /ornaments/:id，只修改请求中出现的字段
func (h *OrnamentHandler) Update(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		response.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := h.catalog.UpdateOrnament(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete DELETE /ornaments/:id
func (h *OrnamentHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteOrnament(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id")})
}

// UploadMedia POST /ornaments/media，表单字段 files
func (h *OrnamentHandler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "multipart form required")
		return
	}
	headers := form.File["files"]
	files := make([]service.MediaFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxMediaBytes {
			response.Error(c, http.StatusBadRequest, "file "+fh.Filename+" is too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, service.MediaFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	urls, err := h.catalog.UploadMedia(c.Request.Context(), files)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"urls": urls})
}

func parseFilter(c *gin.Context) (model.OrnamentFilter, error) {
	f := model.OrnamentFilter{
		Gender:        strings.TrimSpace(c.Query("gender")),
		Categories:    csv(c.Query("category")),
		SubCategories: csv(c.Query("subCategory")),
		Type:          strings.TrimSpace(c.Query("type")),
		MetalTypes:    csv(c.Query("metalType")),
		StoneTypes:    csv(c.Query("stoneType")),
		Styles:        csv(c.Query("style")),
		Sizes:         csv(c.Query("size")),
		Colors:        csv(c.Query("color")),
		Search:        c.Query("search"),
		Sort:          c.Query("sort"),
	}

	var err error
	if f.MinPrice, err = optionalFloat(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalFloat(c, "maxPrice"); err != nil {
		return f, err
	}
	if f.Page, err = optionalInt(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = optionalInt(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func csv(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errx.Validationf("invalid %s", key)
	}
	return &v, nil
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errx.Validationf("invalid %s", key)
	}
	return v, nil
}
