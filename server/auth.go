package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/common"
	"github.com/rabithua/chatmemo/common/log"
	"github.com/rabithua/chatmemo/server/auth"
	"github.com/rabithua/chatmemo/store"
)

func (s *Server) registerAuthRoutes(g *echo.Group) {
	g.POST("/auth/signup", func(c echo.Context) error {
		ctx := c.Request().Context()
		signup := &api.SignUp{}
		if err := json.NewDecoder(c.Request().Body).Decode(signup); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted signup request").SetInternal(err)
		}
		if err := signup.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid signup request: %s", err.Error())).SetInternal(err)
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(signup.Password), bcrypt.DefaultCost)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate password hash").SetInternal(err)
		}

		nickname := signup.Nickname
		if nickname == "" {
			nickname = signup.Username
		}
		user, err := s.Store.CreateUser(ctx, &store.User{
			Username:     signup.Username,
			Nickname:     nickname,
			PasswordHash: string(passwordHash),
		})
		if err != nil {
			if common.ErrorCode(err) == common.Conflict {
				return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("Username %s is already taken", signup.Username)).SetInternal(err)
			}
			return httpError(err, "Failed to create user")
		}
		log.Info("user signed up", zap.Int("userId", user.ID), zap.String("username", user.Username))

		return s.respondWithAccessToken(c, user)
	})

	g.POST("/auth/signin", func(c echo.Context) error {
		ctx := c.Request().Context()
		signin := &api.SignIn{}
		if err := json.NewDecoder(c.Request().Body).Decode(signin); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformatted signin request").SetInternal(err)
		}

		user, err := s.Store.GetUser(ctx, &store.FindUser{Username: &signin.Username})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Incorrect login credentials, please try again").SetInternal(err)
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect login credentials, please try again")
		} else if user.RowStatus == store.Archived {
			return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("User has been archived with username %s", signin.Username))
		}

		// Compare the stored hashed password, with the hashed version of the password that was received.
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(signin.Password)); err != nil {
			// If the two passwords don't match, return a 401 status.
			return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect login credentials, please try again")
		}

		return s.respondWithAccessToken(c, user)
	})

	g.POST("/auth/signout", func(c echo.Context) error {
		cookie := &http.Cookie{
			Name:     auth.AccessTokenCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		}
		c.SetCookie(cookie)
		return c.JSON(http.StatusOK, true)
	})
}

func (s *Server) respondWithAccessToken(c echo.Context, user *store.User) error {
	expiresAt := time.Now().Add(s.Profile.TokenTTL)
	accessToken, err := auth.GenerateAccessToken(user.Username, user.ID, expiresAt, []byte(s.Secret))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate access token").SetInternal(err)
	}

	cookie := &http.Cookie{
		Name:     auth.AccessTokenCookieName,
		Value:    accessToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, composeResponse(&api.AuthResponse{
		AccessToken: accessToken,
		ExpiresTs:   expiresAt.Unix(),
		User:        convertUserFromStore(user),
	}))
}
