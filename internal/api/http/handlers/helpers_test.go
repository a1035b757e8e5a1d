package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

func query(t *testing.T, target string, handler fiber.Handler) map[string]any {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestParsePageClampsPageSize(t *testing.T) {
	cases := map[string]struct {
		target   string
		page     float64
		pageSize float64
	}{
		"defaults":      {"/", 1, repository.DefaultPageSize},
		"explicit":      {"/?page=3&page_size=20", 3, 20},
		"huge":          {"/?page_size=10000000", 1, maxPageSize},
		"garbage":       {"/?page=x&page_size=-4", 1, repository.DefaultPageSize},
		"exactly limit": {"/?page_size=500", 1, 500},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := query(t, tc.target, func(c *fiber.Ctx) error {
				p := parsePage(c)
				return c.JSON(fiber.Map{"page": p.page, "page_size": p.limit(), "offset": p.offset()})
			})
			assert.Equal(t, tc.page, out["page"])
			assert.Equal(t, tc.pageSize, out["page_size"])
			assert.Equal(t, (tc.page-1)*tc.pageSize, out["offset"])
		})
	}
}

func TestUUIDQuery(t *testing.T) {
	const id = "7d3f1a2b-0c4e-4f5a-9b6c-1d2e3f4a5b01"
	run := func(target string) map[string]any {
		return query(t, target, func(c *fiber.Ctx) error {
			val, err := uuidQuery(c, "after_id")
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				return c.JSON(fiber.Map{"code": domainErr.Code, "details": domainErr.Details})
			}
			return c.JSON(fiber.Map{"value": val})
		})
	}

	assert.Equal(t, "", run("/")["value"])
	assert.Equal(t, id, run("/?after_id="+id)["value"])

	bad := run("/?after_id=12")
	assert.Equal(t, apperrors.CodeValidation, bad["code"])
	assert.Contains(t, bad["details"], "after_id")
}
