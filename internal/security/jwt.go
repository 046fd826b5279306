package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"multisign-server/config"
	"multisign-server/internal/model"
	"multisign-server/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

const issuer = "multisign-server"

// Claims : HS512 токен, выпущенный слоем аутентификации.
// Содержит атрибуты пользователя, полученные от IdP.
type Claims struct {
	model.Identity
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateIdentityToken : выпускает токен для identity со сроком жизни ttl
func (service *JWTService) GenerateIdentityToken(identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Eppn,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	token, err := jwtToken.SignedString([]byte(service.SecretKey))
	if err != nil {
		return "", util.LogError("[JWTService] ошибка подписи токена", err)
	}
	return token, nil
}

func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return []byte(service.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("[JWTService] невалидный токен: %w", err)
	}
	if !jwtToken.Valid {
		return nil, errors.New("[JWTService] невалидный токен")
	}
	if len(claims.Emails) == 0 {
		return nil, errors.New("[JWTService] в токене нет адреса почты")
	}

	return claims, nil
}

func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			util.HandleError(writer, "требуется авторизация", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := jwtService.ValidateJWT(token)
		if err != nil {
			zap.L().Info("[JWTMiddleware] отклонён токен", zap.Error(err))
			util.HandleError(writer, "невалидный токен", http.StatusUnauthorized)
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}

// GetIdentityFromContext : identity текущего запроса
func GetIdentityFromContext(ctx context.Context) (model.Identity, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return model.Identity{}, err
	}
	return claims.Identity, nil
}
