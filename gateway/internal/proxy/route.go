package proxy

import "net/http"

// Route describes one forwarded endpoint. Every listed query parameter,
// form field and file is required on the inbound request.
type Route struct {
	Method         string
	Path           string
	UpstreamPath   string
	ExpectedStatus int
	Query          []string
	Form           []string
	Files          []string
	Headers        []string
	Protected      bool
}

func (r Route) upstreamPath() string {
	if r.UpstreamPath != "" {
		return r.UpstreamPath
	}
	return r.Path
}

func (r Route) expectedStatus() int {
	if r.ExpectedStatus != 0 {
		return r.ExpectedStatus
	}
	return http.StatusOK
}

// MosgimRoutes is the route table of the mosgim compute service.
func MosgimRoutes() []Route {
	return []Route{
		{
			Method:         http.MethodPost,
			Path:           "/ping",
			ExpectedStatus: http.StatusOK,
			Query:          []string{"text"},
		},
		{
			Method:         http.MethodPost,
			Path:           "/mosgim/generate-map",
			ExpectedStatus: http.StatusOK,
			Query:          []string{"mag_type", "const"},
			Files:          []string{"file"},
			Protected:      true,
		},
	}
}

// UploadRoutes forwards raw uploads to the upload service.
func UploadRoutes() []Route {
	return []Route{
		{
			Method:         http.MethodPost,
			Path:           "/uploadfile",
			ExpectedStatus: http.StatusOK,
			Files:          []string{"file"},
		},
	}
}
