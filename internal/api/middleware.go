package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ValidateContentType rejects body-carrying requests that are not JSON.
func ValidateContentType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// Empty bodies are fine (complete/cancel/acknowledge take none)
			if c.Request().ContentLength == 0 {
				return next(c)
			}

			contentType := c.Request().Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "application/json") {
				return BadRequestError(
					"Invalid Content-Type",
					"Content-Type must be 'application/json'. Got: "+contentType,
				)
			}
		}

		return next(c)
	}
}

// ValidateAcceptHeader rejects clients that cannot accept JSON responses.
func ValidateAcceptHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accept := c.Request().Header.Get("Accept")

		// No Accept header means */*
		if accept == "" {
			return next(c)
		}

		if !strings.Contains(accept, "application/json") &&
			!strings.Contains(accept, "*/*") &&
			!strings.Contains(accept, "application/*") {
			return BadRequestError(
				"Invalid Accept header",
				"API only returns JSON. Accept header must include 'application/json' or '*/*'. Got: "+accept,
			)
		}

		return next(c)
	}
}

// ValidateIDFormat checks :id path parameters before they reach the store.
// Entity IDs have the form "<kind>:<uuid>", so anything without a colon or
// with whitespace can be rejected without a lookup.
func ValidateIDFormat(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return next(c)
		}

		if strings.ContainsAny(id, " \t") {
			return BadRequestError(
				"Invalid ID format",
				"ID cannot contain whitespace",
			)
		}

		kind, rest, ok := strings.Cut(id, ":")
		if !ok || kind == "" || rest == "" {
			return BadRequestError(
				"Invalid ID format",
				"ID must have the form <kind>:<identifier>",
			)
		}

		if len(id) > 256 {
			return BadRequestError(
				"Invalid ID format",
				"ID must not exceed 256 characters",
			)
		}

		return next(c)
	}
}

// SecurityHeaders adds standard security headers to every response.
func SecurityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		return next(c)
	}
}
