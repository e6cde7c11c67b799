package common

// PasswordProviderKey is the provider key of the built-in email/password
// provider. The linked account of this provider stores the password hash
// as its provider-scoped id.
const PasswordProviderKey = "password"
