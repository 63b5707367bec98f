package api

import (
	"compress/gzip"
	"errors"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"taskmanager-api/auth"
	"taskmanager-api/domain"
)

const claimsKey = "auth.claims"

// requireAuth rejects requests without a valid bearer token and stores the
// token claims on the context.
func requireAuth(v *auth.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := auth.BearerToken(c.Request().Header)
			if err != nil {
				metricsFrom(c).SetErrorStage("auth")
				return err
			}
			claims, err := v.Validate(token)
			if err != nil {
				metricsFrom(c).SetErrorStage("auth")
				return err
			}
			c.Set(claimsKey, claims)
			metricsFrom(c).SetUser(claims.UserID)
			return next(c)
		}
	}
}

// requireRole allows only callers whose role claim is one of roles.
func requireRole(roles ...domain.UserStatus) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.HasRole(claimsFrom(c), roles...) {
				metricsFrom(c).SetErrorStage("authorize")
				return errRoleRequired
			}
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func viewerFrom(c echo.Context) domain.Viewer {
	if claims := claimsFrom(c); claims != nil {
		return claims.Viewer()
	}
	return domain.Viewer{}
}

var errBadGzip = domain.Invalid("body", "is not valid gzip")

// gzipRequest transparently inflates request bodies sent with
// Content-Encoding: gzip. Corrupt streams surface as validation errors.
func gzipRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !encodedWith(req.Header.Get(echo.HeaderContentEncoding), "gzip") {
				return next(c)
			}
			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				metricsFrom(c).SetErrorStage("decode")
				return errBadGzip
			}
			req.Body = &inflatedBody{zr: zr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

// encodedWith reports whether the Content-Encoding list names coding.
func encodedWith(header, coding string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), coding) {
			return true
		}
	}
	return false
}

type inflatedBody struct {
	zr  *gzip.Reader
	raw io.ReadCloser
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	n, err := b.zr.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		var limitErr *echo.HTTPError
		if errors.As(err, &limitErr) {
			return n, err
		}
		return n, errBadGzip
	}
	return n, err
}

func (b *inflatedBody) Close() error {
	return errors.Join(b.zr.Close(), b.raw.Close())
}
