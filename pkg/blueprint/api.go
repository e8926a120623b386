package blueprint

import (
	"fmt"
	"strings"
)

// HTTPMethod enumerates methods for API endpoints.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// Valid reports whether the method is known.
func (m HTTPMethod) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	default:
		return false
	}
}

// AuthType enumerates endpoint authentication schemes.
type AuthType string

const (
	AuthNone    AuthType = "none"
	AuthJWT     AuthType = "jwt"
	AuthOAuth2  AuthType = "oauth2"
	AuthAPIKey  AuthType = "api_key"
	AuthSession AuthType = "session"
	AuthBasic   AuthType = "basic"
)

// Valid reports whether the auth type is known.
func (a AuthType) Valid() bool {
	switch a {
	case AuthNone, AuthJWT, AuthOAuth2, AuthAPIKey, AuthSession, AuthBasic:
		return true
	default:
		return false
	}
}

// Parameter locations.
const (
	ParamPath   = "path"
	ParamQuery  = "query"
	ParamBody   = "body"
	ParamHeader = "header"
)

// APIParameter is a single endpoint parameter.
type APIParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"` // path, query, body, header
	DataType    string `json:"data_type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// APIResponse is one possible endpoint response.
type APIResponse struct {
	StatusCode  int            `json:"status_code"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// APIEndpoint is a single API operation.
type APIEndpoint struct {
	Path               string         `json:"path"` // e.g. /api/v1/users/{id}
	Method             HTTPMethod     `json:"method"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	AuthRequired       bool           `json:"auth_required"`
	AuthType           AuthType       `json:"auth_type,omitempty"`
	Parameters         []APIParameter `json:"parameters,omitempty"`
	Responses          []APIResponse  `json:"responses"`
	DatabaseOperations []string       `json:"database_operations,omitempty"` // Tables accessed
}

// APIDesign is the API design stage payload.
type APIDesign struct {
	BaseURL                string        `json:"base_url"`
	Endpoints              []APIEndpoint `json:"endpoints"`
	AuthenticationStrategy string        `json:"authentication_strategy"`
	RateLimiting           string        `json:"rate_limiting,omitempty"`
	VersioningStrategy     string        `json:"versioning_strategy"`
	Reasoning              string        `json:"reasoning"`
}

// Validate checks structural completeness of the design.
func (d *APIDesign) Validate() error {
	if len(d.Endpoints) == 0 {
		return fmt.Errorf("api: endpoints must not be empty")
	}
	if d.AuthenticationStrategy == "" {
		return fmt.Errorf("api: authentication_strategy must not be empty")
	}
	if d.Reasoning == "" {
		return fmt.Errorf("api: reasoning must not be empty")
	}

	seen := make(map[string]bool, len(d.Endpoints))
	for i := range d.Endpoints {
		ep := &d.Endpoints[i]
		if ep.Path == "" {
			return fmt.Errorf("api: endpoint %d has no path", i)
		}
		if !ep.Method.Valid() {
			return fmt.Errorf("api: endpoint %s has unknown method %q", ep.Path, ep.Method)
		}
		key := string(ep.Method) + " " + ep.Path
		if seen[key] {
			return fmt.Errorf("api: duplicate endpoint %s", key)
		}
		seen[key] = true

		if len(ep.Responses) == 0 {
			return fmt.Errorf("api: endpoint %s has no responses", key)
		}
		if ep.AuthRequired && ep.AuthType == "" {
			return fmt.Errorf("api: endpoint %s requires auth but has no auth_type", key)
		}
		if ep.AuthType != "" && !ep.AuthType.Valid() {
			return fmt.Errorf("api: endpoint %s has unknown auth_type %q", key, ep.AuthType)
		}
		for j := range ep.Parameters {
			p := &ep.Parameters[j]
			switch p.ParamType {
			case ParamPath, ParamQuery, ParamBody, ParamHeader:
			default:
				return fmt.Errorf("api: endpoint %s parameter %q has unknown param_type %q", key, p.Name, p.ParamType)
			}
		}
	}
	return nil
}

// CrossCheck returns soft warnings for endpoint references that do not line
// up with the database schema. These never fail a run.
func (d *APIDesign) CrossCheck(schema *DatabaseSchema) []string {
	if schema == nil {
		return nil
	}
	var warnings []string
	for i := range d.Endpoints {
		ep := &d.Endpoints[i]
		for _, tableName := range ep.DatabaseOperations {
			if schema.Table(tableName) == nil {
				warnings = append(warnings, fmt.Sprintf("endpoint %s %s touches unknown table %q",
					ep.Method, ep.Path, tableName))
			}
		}
	}
	return warnings
}

// NormalizePath joins the base URL with an endpoint path for display.
func (d *APIDesign) NormalizePath(ep *APIEndpoint) string {
	if strings.HasPrefix(ep.Path, d.BaseURL) {
		return ep.Path
	}
	return strings.TrimSuffix(d.BaseURL, "/") + "/" + strings.TrimPrefix(ep.Path, "/")
}
