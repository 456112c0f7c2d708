package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// identityMiddleware carries the token identity on the request context,
// so that the services stamp it on the records they create.
func identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(core.WithIdentity(req.Context(), claims.Identity())))
		return next(ctx)
	}
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.IsAdmin {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// staffOrReadOnlyMiddleware lets tutors read the dashboard; writes need a staff or admin role.
func staffOrReadOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		switch ctx.Request().Method {
		case http.MethodGet, http.MethodHead:
			return next(ctx)
		}
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.CanEdit() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
