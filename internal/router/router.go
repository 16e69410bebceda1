package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bptracker/internal/auth"
	"bptracker/internal/config"
	apperrors "bptracker/internal/errors"
	"bptracker/internal/handler"
	"bptracker/internal/model"
)

const callerContextKey = "caller"

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Reading *handler.ReadingHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, log logrus.FieldLogger, guard *auth.Guard, h Handlers) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, auth.TokenHeader},
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/register", h.Auth.Register)
	e.POST("/login", h.Auth.Login)

	// Secured routes (require a valid x-access-token)
	requireToken := tokenGuard(guard)

	me := e.Group("/me", requireToken)
	me.GET("", withCaller(h.User.Me))
	me.DELETE("", withCaller(h.User.DeleteMe))

	readings := e.Group("/readings", requireToken)
	readings.POST("", withCaller(h.Reading.Create))
	readings.GET("", withCaller(h.Reading.List))
	readings.GET("/summary", withCaller(h.Reading.Summary))
	readings.DELETE("/:id", withCaller(h.Reading.Delete))
}

// tokenGuard extracts the token header and resolves the caller before any
// secured handler runs.
func tokenGuard(guard *auth.Guard) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:" + auth.TokenHeader,
		ContextKey:  callerContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return guard.Authorize(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				err = apperrors.ErrTokenMissing
			}
			mapped := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(mapped.StatusCode, mapped.Message).SetInternal(err)
		},
	})
}

// withCaller hands the guard-resolved user to h as an explicit argument.
func withCaller(h func(c echo.Context, caller *model.User) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, ok := c.Get(callerContextKey).(*model.User)
		if !ok || caller == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is missing!")
		}
		return h(c, caller)
	}
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("request failed")
			case v.Error != nil:
				entry.WithError(v.Error).Warn("request rejected")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
