// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package team

import "time"

// # Team Roles

// Participant roles within a scanlation team. A participant holds any
// combination of them; "admin" gates team management and "uploader"
// (or "admin") gates chapter publication.
const (
	RoleAdmin      = "admin"
	RoleUploader   = "uploader"
	RoleTranslator = "translator"
	RoleCleaner    = "cleaner"
	RoleTypesetter = "typesetter"
	RoleEditor     = "editor"
	RoleCorrector  = "corrector"
	RoleBetaReader = "beta_reader"
	RoleScanner    = "scanner"
)

// KnownRoles lists every assignable participant role.
var KnownRoles = []string{
	RoleAdmin, RoleUploader, RoleTranslator, RoleCleaner, RoleTypesetter,
	RoleEditor, RoleCorrector, RoleBetaReader, RoleScanner,
}

// # Entities

// Team is a scanlation group that releases chapters.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Participant is a user's membership in a team with their assigned roles.
type Participant struct {
	ID     string   `json:"id"`
	UserID string   `json:"user_id"`
	TeamID string   `json:"team_id"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the participant holds the given role.
func (p *Participant) HasRole(role string) bool {
	for _, held := range p.Roles {
		if held == role {
			return true
		}
	}
	return false
}
