package auth

// Known OAuth scopes used by the API.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
	ScopeProfileRead     = "profile:read"
)
