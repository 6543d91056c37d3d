package model

// HandleSource records where a social handle came from.
type HandleSource string

const (
	// HandleSourceOAuth marks a handle backed by a live OAuth connection.
	HandleSourceOAuth HandleSource = "oauth"
	// HandleSourceDeclared marks a handle typed into the business profile.
	HandleSourceDeclared HandleSource = "declared"
)

// SocialHandle is one platform handle attached to an owner. An
// OAuth-connected handle always supersedes a declared handle for the
// same platform.
type SocialHandle struct {
	Platform  string       `json:"platform"`
	Username  string       `json:"username"`
	Source    HandleSource `json:"source"`
	Connected bool         `json:"connected"`
}

// BusinessProfile is the minimal owner record the orchestrator needs:
// the owner's own domain and any self-declared social handles.
type BusinessProfile struct {
	OwnerID         string         `json:"owner_id"`
	Domain          string         `json:"domain"`
	DeclaredHandles []SocialHandle `json:"declared_handles,omitempty"`
}
