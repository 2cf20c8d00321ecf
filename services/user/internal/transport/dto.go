package transport

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=120"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenQuery struct {
	Token string `query:"token" validate:"required"`
}

type CheckAccessQuery struct {
	ServiceName string `query:"service_name" validate:"required"`
	Token       string `query:"token" validate:"required"`
}

type RoleCreateRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type RoleAssignRequest struct {
	RoleID uint `json:"role_id" validate:"required,gt=0"`
}

type ServiceCreateQuery struct {
	ServiceName string `query:"service_name" validate:"required,max=255"`
}

type ServiceAssignQuery struct {
	ServiceID uint `query:"service_id" validate:"required,gt=0"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type VerifyResponse struct {
	Message string `json:"message"`
	IsValid bool   `json:"is_valid"`
}

type AccessResponse struct {
	Message   string `json:"message"`
	HasAccess bool   `json:"has_access"`
}

type RoleDeleteResponse struct {
	Deleted bool `json:"deleted"`
}
