package security

import (
	"errors"
	"time"

	"fintech_index/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a bearer token carrying the user's id, role and
// email, expiring after the configured lifetime (one day by default).
func GenerateToken(userID, role, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"email":   email,
		"exp":     time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}

func GetUserEmailFromClaims(claims jwt.MapClaims) (string, error) {
	email, ok := claims["email"].(string)
	if !ok {
		return "", errors.New("email claim is missing or not a string")
	}
	return email, nil
}
