package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var errUnauthorized = errors.New("missing or invalid bearer token")

// identity is the authenticated caller as asserted by the upstream identity
// provider. The server trusts the token's participant_id for authorship, but
// never its host flag: host authority is always derived from the room itself.
type identity struct {
	ParticipantId string
	DisplayName   string
	IsAdmin       bool
}

func (c controller) parseIdentity(r *http.Request) (identity, error) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		return identity{}, errUnauthorized
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(c.secret), nil
	})
	if err != nil || !token.Valid {
		return identity{}, errUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errUnauthorized
	}

	participantId, _ := claims["participant_id"].(string)
	if participantId == "" {
		return identity{}, errUnauthorized
	}

	displayName, _ := claims["display_name"].(string)
	isAdmin, _ := claims["is_admin"].(bool)

	return identity{
		ParticipantId: participantId,
		DisplayName:   displayName,
		IsAdmin:       isAdmin,
	}, nil
}

// bearerToken pulls the credential from the Authorization header, falling
// back to the access-token query param for websocket clients that cannot set
// headers during the upgrade handshake.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}

	return r.URL.Query().Get("access-token")
}
