package mapview

import (
	"errors"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, ctrl *Controller, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		s := ctrl.CreateSession()
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    s.ID,
			"state": s.State(),
			"zoom":  s.Zoom(),
		})
	})

	r.Delete("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		ctrl.DropSession(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/sessions/:id/permissions", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		var body struct {
			Granted *bool `json:"granted"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		// no grant result yet means the dialog was just shown
		if body.Granted == nil {
			return c.JSON(fiber.Map{"state": s.PromptPermissions()})
		}
		state := s.CheckPermissions(*body.Granted)
		return c.JSON(fiber.Map{"state": state})
	})

	r.Post("/sessions/:id/location", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		var body struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		}
		_ = c.BodyParser(&body)

		var fix *geo.Point
		if body.Lat != nil && body.Lng != nil {
			fix = &geo.Point{Lat: *body.Lat, Lng: *body.Lng}
		}

		markers, err := ctrl.ResolveLocation(c.Context(), s, fix)
		if err != nil {
			switch {
			case errors.Is(err, ErrPermissionBlocked):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			case errors.Is(err, ErrNotReady):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"state":   s.State(),
			"center":  s.Center(),
			"markers": markers,
		})
	})

	r.Get("/sessions/:id/markers", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(s.Markers())
	})

	r.Get("/sessions/:id/pins/:pinID", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		p, err := ctrl.TapMarker(c.Context(), s, c.Params("pinID"))
		if err != nil {
			if errors.Is(err, ErrPermissionBlocked) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(p)
	})

	r.Post("/sessions/:id/intent", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		var body geo.Point
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		return c.JSON(s.LongPress(body))
	})

	r.Post("/sessions/:id/zoom", authMiddleware, func(c *fiber.Ctx) error {
		s, err := ctrl.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		var body struct {
			Direction string `json:"direction"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "direction required")
		}
		var zoom int
		switch body.Direction {
		case "in":
			zoom = s.ZoomIn()
		case "out":
			zoom = s.ZoomOut()
		default:
			return fiber.NewError(fiber.StatusBadRequest, "direction must be in or out")
		}
		return c.JSON(fiber.Map{"zoom": zoom})
	})
}
