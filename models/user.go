// Package models defines the data model of the identity core: platform
// accounts and the external identities linked to them.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// GravatarURL is the base URL avatar URLs are derived from. The avatar
// service expects an md5 hex digest of the normalized email address.
const GravatarURL = "http://www.gravatar.com/avatar/"

// User represents one platform account. Email and Fullname are each
// globally unique. A user starts out unconfirmed: Validated is false and
// ConfirmationToken holds the opaque one-time credential that proves
// control of the registration email. Confirmation clears the token and
// sets Validated; the two fields are never both "set".
type User struct {
	ID                string
	Email             string
	Fullname          string
	PasswordHash      string
	ConfirmationToken string
	Validated         bool
	Admin             bool
	Description       string

	// Notification preferences. Nil means "not chosen yet" and reads
	// as enabled.
	NotifOnMyTalk               *bool
	NotifAdminOnAllTalk         *bool
	NotifAdminOnTalkWithComment *bool

	// LinkedAccounts is owned by the user and persisted with it.
	LinkedAccounts []LinkedAccount

	// DynamicFieldValues reference field descriptors owned by an
	// external catalog.
	DynamicFieldValues []DynamicFieldValue

	CreatedAt time.Time
}

// AvatarURL derives the avatar location from the email address. It is a
// pure function of the trimmed, lowercased email; no network I/O happens
// here.
func (u *User) AvatarURL() string {
	sum := md5.Sum([]byte(strings.TrimSpace(strings.ToLower(u.Email))))
	return GravatarURL + hex.EncodeToString(sum[:]) + ".jpg"
}

// LinkSize returns the number of linked accounts.
func (u *User) LinkSize() int {
	return len(u.LinkedAccounts)
}

// Providers returns the distinct provider keys across the user's linked
// accounts.
func (u *User) Providers() map[string]struct{} {
	providers := make(map[string]struct{}, len(u.LinkedAccounts))
	for _, acc := range u.LinkedAccounts {
		providers[acc.ProviderKey] = struct{}{}
	}
	return providers
}

// AccountByProvider returns the first linked account with the given
// provider key, or nil if the user has none.
func (u *User) AccountByProvider(providerKey string) *LinkedAccount {
	for i := range u.LinkedAccounts {
		if u.LinkedAccounts[i].ProviderKey == providerKey {
			return &u.LinkedAccounts[i]
		}
	}
	return nil
}

// Notification preference getters treat an unset preference as enabled.

func (u *User) GetNotifOnMyTalk() bool {
	return u.NotifOnMyTalk == nil || *u.NotifOnMyTalk
}

func (u *User) GetNotifAdminOnAllTalk() bool {
	return u.NotifAdminOnAllTalk == nil || *u.NotifAdminOnAllTalk
}

func (u *User) GetNotifAdminOnTalkWithComment() bool {
	return u.NotifAdminOnTalkWithComment == nil || *u.NotifAdminOnTalkWithComment
}

func (u *User) SetNotifOnMyTalk(v bool) {
	u.NotifOnMyTalk = &v
}

func (u *User) SetNotifAdminOnAllTalk(v bool) {
	u.NotifAdminOnAllTalk = &v
}

func (u *User) SetNotifAdminOnTalkWithComment(v bool) {
	u.NotifAdminOnTalkWithComment = &v
}

// DynamicFieldValue holds one user-provided value for an externally
// defined field descriptor.
type DynamicFieldValue struct {
	FieldID string
	Value   string
}
