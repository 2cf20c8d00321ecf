package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/services/user/internal/service"
	"github.com/mosgim/platform/services/user/internal/transport"
)

type ServiceHTTP struct {
	Svc *service.AuthService
}

func (h *ServiceHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "service_list")

	services, err := h.Svc.ListServices(ctx)
	if err != nil {
		return toHTTPError(l, "list_services", err)
	}
	return c.JSON(http.StatusOK, services)
}

func (h *ServiceHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "service_create")

	var q transport.ServiceCreateQuery
	if err := bindQuery(c, l, "create_service", &q); err != nil {
		return err
	}

	svc, err := h.Svc.CreateService(ctx, q.ServiceName)
	if err != nil {
		return toHTTPError(l, "create_service", err)
	}
	l.Info("service_created", "service_id", svc.ID, "name", svc.Name)
	return c.JSON(http.StatusOK, svc)
}

func (h *ServiceHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "service_delete")

	id, err := pathID(c, l, "delete_service", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteService(ctx, id); err != nil {
		return toHTTPError(l, "delete_service", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Service deleted successfully"})
}

func (h *ServiceHTTP) Assign(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "service_assign")

	id, err := pathID(c, l, "assign_service", "id")
	if err != nil {
		return err
	}
	var q transport.ServiceAssignQuery
	if err := bindQuery(c, l, "assign_service", &q); err != nil {
		return err
	}

	granted, err := h.Svc.GrantService(ctx, id, q.ServiceID)
	if err != nil {
		return toHTTPError(l, "assign_service", err)
	}
	if !granted {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User already has access to this service"})
	}
	l.Info("service_assigned", "user_id", id, "service_id", q.ServiceID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Service assigned successfully"})
}

func (h *ServiceHTTP) UserServices(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "service_user_services")

	id, err := pathID(c, l, "user_services", "id")
	if err != nil {
		return err
	}
	services, err := h.Svc.UserServices(ctx, id)
	if err != nil {
		return toHTTPError(l, "user_services", err)
	}
	return c.JSON(http.StatusOK, services)
}
