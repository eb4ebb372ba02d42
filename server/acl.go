package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rabithua/chatmemo/common"
	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/server/auth"
	"github.com/rabithua/chatmemo/store"
)

const (
	// The key name used to store user id in the context
	// user id is extracted from the jwt token subject field.
	userIDContextKey = "user-id"
)

func getUserIDContextKey() string {
	return userIDContextKey
}

func findAccessToken(c echo.Context) string {
	accessToken := ""
	cookie, _ := c.Cookie(auth.AccessTokenCookieName)
	if cookie != nil {
		accessToken = cookie.Value
	}
	if accessToken == "" {
		accessToken = extractTokenFromHeader(c)
	}
	return accessToken
}

func extractTokenFromHeader(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 || strings.ToLower(authHeaderParts[0]) != "bearer" {
		return ""
	}

	return authHeaderParts[1]
}

// JWTMiddleware validates the access token and stores the user id in the context.
func JWTMiddleware(server *Server, next echo.HandlerFunc, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		path := c.Request().URL.Path

		// Skip validation for public routes.
		if common.HasPrefixes(path, "/api/ping", "/api/auth") {
			return next(c)
		}

		token := findAccessToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing access token")
		}

		claims, err := auth.ParseAccessToken(token, []byte(secret))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired access token").SetInternal(err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Malformed access token").SetInternal(err)
		}

		user, err := server.Store.GetUser(ctx, &store.FindUser{ID: &userID})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to find user").SetInternal(err)
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "User of access token not found")
		}
		if user.RowStatus == store.Archived {
			log.Warn("archived user attempted access", zap.Int("userId", userID))
			return echo.NewHTTPError(http.StatusUnauthorized, "User has been archived")
		}

		c.Set(getUserIDContextKey(), userID)
		return next(c)
	}
}
