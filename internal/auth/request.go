package auth

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/sakif/quotes-api/internal/apperror"
)

// Pure, store-free validation of the two credential shapes the API accepts.
// Every rejection is a distinct 400 validation error naming the check that
// failed, so clients can tell a missing header from bad hex from bad base64.

var (
	keyHexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

	// "Basic " followed by at least one base64 character.
	basicHeaderPattern = regexp.MustCompile(`^Basic [a-zA-Z0-9+/=]+$`)

	// username (1-20 alphanumerics/underscores) ":" password (8-128 alphanumerics)
	basicCredentialsPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,20}:[a-zA-Z0-9]{8,128}$`)
)

// ParseKeyHeaders validates the raw "identity-key" and "secret-key" header
// values and returns them lowercased, ready for lookup and verification.
//
// Checks run in order: presence, prefix, hex portion presence, hex validity.
// Values are lowercased before checking, so clients may send uppercase hex.
func ParseKeyHeaders(identityHeader, secretHeader string) (identityKey, secretKey string, err error) {
	if identityHeader == "" || secretHeader == "" {
		return "", "", apperror.ValidationFailed("headers",
			"missing header(s): identity-key and/or secret-key")
	}

	identityKey = strings.ToLower(identityHeader)
	secretKey = strings.ToLower(secretHeader)

	if !strings.HasPrefix(identityKey, IdentityKeyPrefix) ||
		!strings.HasPrefix(secretKey, SecretKeyPrefix) {
		return "", "", apperror.ValidationFailed("headers",
			`API keys must have "identity-" or "secret-" prefixes`)
	}

	identityHex := strings.TrimPrefix(identityKey, IdentityKeyPrefix)
	secretHex := strings.TrimPrefix(secretKey, SecretKeyPrefix)
	if identityHex == "" || secretHex == "" {
		return "", "", apperror.ValidationFailed("headers",
			"the identity and/or secret key is missing its hexadecimal portion")
	}

	if !keyHexPattern.MatchString(identityHex) || !keyHexPattern.MatchString(secretHex) {
		return "", "", apperror.ValidationFailed("headers",
			"the hexadecimal part of the identity and/or secret key is invalid: "+
				"it must be 64 lowercase hex characters")
	}

	return identityKey, secretKey, nil
}

// ParseBasicAuth validates an "Authorization: Basic <base64>" header and
// returns the decoded username and password.
//
// The decoded credentials must look like username:password with a 1-20 char
// alphanumeric/underscore username and an 8-128 char alphanumeric password —
// the same rules registration enforces, so anything failing here could never
// belong to an account anyway.
func ParseBasicAuth(header string) (username, password string, err error) {
	if header == "" {
		return "", "", apperror.ValidationFailed("authorization",
			"missing header: Authorization")
	}

	if !basicHeaderPattern.MatchString(header) {
		return "", "", apperror.ValidationFailed("authorization",
			`malformed header: Authorization must be "Basic <base64>"`)
	}

	encoded := strings.TrimPrefix(header, "Basic ")
	decoded, decodeErr := base64.StdEncoding.DecodeString(encoded)
	if decodeErr != nil {
		return "", "", apperror.ValidationFailed("authorization",
			"malformed header: Authorization value is not valid base64")
	}

	credentials := string(decoded)
	if !basicCredentialsPattern.MatchString(credentials) {
		return "", "", apperror.ValidationFailed("authorization",
			"malformed header: decoded Authorization value is not valid credentials")
	}

	// The password is alphanumeric, so the first colon is THE separator.
	sep := strings.IndexByte(credentials, ':')
	return credentials[:sep], credentials[sep+1:], nil
}
