package chat

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, hub *Hub, authMiddleware fiber.Handler) {
	r.Post("/:pinID", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Username string `json:"username"`
			Message  string `json:"message"`
		}
		if err := c.BodyParser(&body); err != nil || body.Message == "" {
			return fiber.NewError(fiber.StatusBadRequest, "message required")
		}
		senderID, _ := c.Locals("user_id").(string)
		msg, err := svc.Send(c.Context(), c.Params("pinID"), senderID, body.Username, body.Message)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	r.Get("/:pinID", func(c *fiber.Ctx) error {
		msgs, err := svc.History(c.Context(), c.Params("pinID"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if msgs == nil {
			msgs = []Message{}
		}
		return c.JSON(msgs)
	})

	r.Get("/ws/:pinID", websocket.New(func(c *websocket.Conn) {
		pinID := c.Params("pinID")
		client := hub.Subscribe(pinID)

		// initial snapshot so the subscriber starts from the full list
		if history, err := svc.History(context.Background(), pinID); err == nil {
			payload, _ := json.Marshal(history)
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				hub.Unsubscribe(client)
				return
			}
		}

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		// closing the subscription ends the writer loop
		hub.Unsubscribe(client)
		<-done
	}))
}
