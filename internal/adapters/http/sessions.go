package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/maptrace/internal/core/domain"
)

// sourceAPI tags fragment changes made through REST.
const sourceAPI = "api"

type fragmentResponse struct {
	Session  string `json:"session"`
	Fragment string `json:"fragment"`
}

func sendFragment(c *fiber.Ctx, text string) error {
	return c.JSON(fragmentResponse{Session: c.Params("id"), Fragment: text})
}

// GetFragmentHandler returns the normalized fragment of a session.
func GetFragmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Fragments.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, st.String())
	}
}

// ReplaceFragmentHandler swaps the whole fragment of a session.
func ReplaceFragmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Fragment string `json:"fragment"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		text, err := deps.Fragments.Replace(c.UserContext(), c.Params("id"), req.Fragment, sourceAPI)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// PatchFragmentHandler deletes and sets individual keys. A null value
// sets a bare flag.
func PatchFragmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Set    map[string]*string `json:"set"`
			Delete []string           `json:"delete"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		for key := range req.Set {
			if key == "" {
				return errBadRequest(c, "empty key")
			}
		}
		text, err := deps.Fragments.Patch(c.UserContext(), c.Params("id"), req.Set, req.Delete, sourceAPI)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// GetViewHandler restores the map view of a session.
func GetViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Location.Restore(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(view)
	}
}

// UpdateViewHandler writes zoom, center and popups into a session.
func UpdateViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u domain.MapUpdate
		if err := c.BodyParser(&u); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		text, err := deps.Location.UpdateMap(c.UserContext(), c.Params("id"), u)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// UpdateLayersHandler stores which layers are visible.
func UpdateLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Visible []string `json:"visible"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		text, err := deps.Location.UpdateLayers(c.UserContext(), c.Params("id"), req.Visible)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// GetSessionPathHandler measures the session's active path.
func GetSessionPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, active, err := deps.Distance.MeasureSession(c.UserContext(), c.Params("id"), zoomParam(c, deps))
		if err != nil {
			return errFromService(c, err)
		}
		if !active {
			return c.JSON(fiber.Map{"active": false, "prompt": deps.Distance.Strings().MeasureDistance})
		}
		return c.JSON(fiber.Map{"active": true, "measurement": m})
	}
}

// PutSessionPathHandler replaces the session's path. "active" defaults to true.
func PutSessionPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Points []domain.GeoPoint `json:"points"`
			Active *bool             `json:"active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		active := req.Active == nil || *req.Active

		text, err := deps.Distance.WritePath(c.UserContext(), c.Params("id"), req.Points, active)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// DeleteSessionPathHandler turns the distance tool off for a session.
func DeleteSessionPathHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text, err := deps.Distance.WritePath(c.UserContext(), c.Params("id"), nil, false)
		if err != nil {
			return errFromService(c, err)
		}
		return sendFragment(c, text)
	}
}

// AppendPointHandler adds a point at the end of the session's path.
func AppendPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pt domain.GeoPoint
		if err := c.BodyParser(&pt); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		path, err := deps.Distance.EditPath(c.UserContext(), c.Params("id"), func(p domain.Path) domain.Path {
			return p.Append(pt)
		})
		if err != nil {
			return errFromService(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"points": path})
	}
}

// MovePointHandler replaces one point of the session's path.
func MovePointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, ok := pointIndex(c)
		if !ok {
			return errBadRequest(c, "index must be a non-negative integer")
		}
		var pt domain.GeoPoint
		if err := c.BodyParser(&pt); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		path, err := deps.Distance.EditPath(c.UserContext(), c.Params("id"), func(p domain.Path) domain.Path {
			return p.Move(i, pt)
		})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"points": path})
	}
}

// RemovePointHandler drops one point of the session's path.
func RemovePointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		i, ok := pointIndex(c)
		if !ok {
			return errBadRequest(c, "index must be a non-negative integer")
		}
		path, err := deps.Distance.EditPath(c.UserContext(), c.Params("id"), func(p domain.Path) domain.Path {
			return p.Remove(i)
		})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(fiber.Map{"points": path})
	}
}
