package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/services/user/internal/service"
	"github.com/mosgim/platform/services/user/internal/transport"
)

type RoleHTTP struct {
	Svc *service.AuthService
}

func (h *RoleHTTP) requireAdmin(c echo.Context, l *slog.Logger, op string) error {
	if err := h.Svc.RequireAdmin(c.Request().Context(), c.QueryParam("token")); err != nil {
		return toHTTPError(l, op, err)
	}
	return nil
}

func (h *RoleHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "role_list")

	roles, err := h.Svc.ListRoles(ctx)
	if err != nil {
		return toHTTPError(l, "list_roles", err)
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *RoleHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "role_create")

	if err := h.requireAdmin(c, l, "create_role"); err != nil {
		return err
	}
	var req transport.RoleCreateRequest
	if err := bindAndValidate(c, l, "create_role", &req); err != nil {
		return err
	}

	role, err := h.Svc.CreateRole(ctx, req.Name)
	if err != nil {
		return toHTTPError(l, "create_role", err)
	}
	l.Info("role_created", "role_id", role.ID, "name", role.Name)
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "role_delete")

	if err := h.requireAdmin(c, l, "delete_role"); err != nil {
		return err
	}
	id, err := pathID(c, l, "delete_role", "id")
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteRole(ctx, id); err != nil {
		return toHTTPError(l, "delete_role", err)
	}
	l.Info("role_deleted", "role_id", id)
	return c.JSON(http.StatusOK, transport.RoleDeleteResponse{Deleted: true})
}

func (h *RoleHTTP) UserRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "role_user_role")

	id, err := pathID(c, l, "user_role", "id")
	if err != nil {
		return err
	}
	role, err := h.Svc.UserRole(ctx, id)
	if err != nil {
		return toHTTPError(l, "user_role", err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *RoleHTTP) Assign(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "role_assign")

	if err := h.requireAdmin(c, l, "assign_role"); err != nil {
		return err
	}
	id, err := pathID(c, l, "assign_role", "id")
	if err != nil {
		return err
	}
	var req transport.RoleAssignRequest
	if err := bindAndValidate(c, l, "assign_role", &req); err != nil {
		return err
	}

	if err := h.Svc.AssignRole(ctx, id, req.RoleID); err != nil {
		return toHTTPError(l, "assign_role", err)
	}
	l.Info("role_assigned", "user_id", id, "role_id", req.RoleID)
	return c.JSON(http.StatusOK, true)
}
