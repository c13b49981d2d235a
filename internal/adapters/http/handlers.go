package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/export"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
)

type pointsRequest struct {
	Points []domain.GeoPoint `json:"points"`
	Zoom   *float64          `json:"zoom,omitempty"`
}

// zoomParam reads the zoom query parameter, falling back to the
// configured default.
func zoomParam(c *fiber.Ctx, deps *Dependencies) float64 {
	return c.QueryFloat("zoom", deps.Distance.DefaultZoom())
}

// MeasureHandler measures the points in the request body.
func MeasureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pointsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		zoom := deps.Distance.DefaultZoom()
		if req.Zoom != nil {
			zoom = *req.Zoom
		}

		m, err := deps.Distance.Measure(c.UserContext(), req.Points, zoom)
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(m)
	}
}

// MeasurePathHandler measures an encoded path.
func MeasurePathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := deps.Distance.MeasureEncoded(c.UserContext(), c.Params("encoded"), zoomParam(c, deps))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(m)
	}
}

// EncodePathHandler encodes the points in the request body.
func EncodePathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pointsRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		encoded := pathcodec.Encode(req.Points)
		resp := fiber.Map{"encoded": encoded}
		if deps.PublicURL != "" {
			resp["share_url"] = export.ShareURL(deps.PublicURL, encoded)
		}
		return c.JSON(resp)
	}
}

// DecodePathHandler returns the points of an encoded path.
func DecodePathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, err := deps.Distance.Decode(c.Params("encoded"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"points": path})
	}
}

// ExportPathHandler renders an encoded path as GeoJSON, KML or polyline.
func ExportPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Query("format", string(export.FormatGeoJSON)))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		name := c.Query("name")
		if len(name) > 120 {
			return errBadRequest(c, "name too long (max 120 characters)")
		}

		data, err := deps.Distance.Export(c.UserContext(), c.Params("encoded"), format, zoomParam(c, deps), name)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set(fiber.HeaderContentType, format.ContentType())
		if c.QueryBool("download") {
			c.Attachment("path." + string(format))
		}
		return c.Send(data)
	}
}

// ShareQRHandler returns a PNG QR code linking to the path on the public page.
func ShareQRHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.PublicURL == "" {
			return errUnavailable(c, "public url not configured")
		}
		encoded := c.Params("encoded")
		if !pathcodec.Valid(encoded) {
			return errBadRequest(c, pathcodec.ErrMalformedPath.Error())
		}
		size := c.QueryInt("size", 256)
		if size < 64 || size > 1024 {
			return errBadRequest(c, "size must be between 64 and 1024")
		}

		png, err := export.ShareQR(export.ShareURL(deps.PublicURL, encoded), size)
		if err != nil {
			return errFromService(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}
}

// LayersHandler returns the configured layer catalog.
func LayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Location.Catalog())
	}
}

// StringsHandler returns the user-facing texts of the distance tool.
func StringsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Distance.Strings())
	}
}

// ---- Saved paths ----

type savePathRequest struct {
	Name    string `json:"name"`
	Encoded string `json:"encoded"`
}

// CreateSavedPathHandler stores a named path.
func CreateSavedPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SavedPaths == nil {
			return errUnavailable(c, "database not available")
		}
		var req savePathRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		sp, err := deps.SavedPaths.Save(c.UserContext(), req.Name, req.Encoded)
		if err != nil {
			return errFromService(c, err)
		}
		c.Location("/v1/saved-paths/" + sp.ID)
		return c.Status(fiber.StatusCreated).JSON(sp)
	}
}

// ListSavedPathsHandler returns saved paths, newest first.
func ListSavedPathsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SavedPaths == nil {
			return errUnavailable(c, "database not available")
		}
		offset, limit := parsePagination(c, 50, 200)

		paths, total, err := deps.SavedPaths.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromService(c, err)
		}
		if paths == nil {
			paths = []domain.SavedPath{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paths, Pagination: pg})
	}
}

// GetSavedPathHandler returns one saved path. With ?measure=true the
// path is measured as well.
func GetSavedPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SavedPaths == nil {
			return errUnavailable(c, "database not available")
		}
		sp, err := deps.SavedPaths.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		if !c.QueryBool("measure") {
			return c.JSON(sp)
		}

		m, err := deps.Distance.MeasureEncoded(c.UserContext(), sp.Encoded, zoomParam(c, deps))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"saved_path": sp, "measurement": m})
	}
}

// DeleteSavedPathHandler removes a saved path.
func DeleteSavedPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.SavedPaths == nil {
			return errUnavailable(c, "database not available")
		}
		if err := deps.SavedPaths.Delete(c.UserContext(), c.Params("id")); err != nil {
			return errFromService(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// pointIndex parses the :index route parameter.
func pointIndex(c *fiber.Ctx) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(c.Params("index")))
	return i, err == nil && i >= 0
}
