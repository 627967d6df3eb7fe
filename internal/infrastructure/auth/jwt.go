package auth

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/dgrijalva/jwt-go"
	"github.com/jimlawless/whereami"
)

// Claims — полезная нагрузка токена доступа.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// JWTManager выпускает и проверяет HS256-токены.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(cfg *cfg.AuthCfg) *JWTManager {
	return &JWTManager{
		secret: cfg.JWTSecret,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

func (m *JWTManager) Issue(claims usecase.TokenClaims) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: claims.UserID,
		Role:   string(claims.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   claims.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return signed, nil
}

// Parse проверяет подпись и срок действия. Токены с другим алгоритмом подписи отклоняются.
func (m *JWTManager) Parse(tokenStr string) (*usecase.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrUnauthorized)
	}

	return &usecase.TokenClaims{UserID: claims.UserID, Role: domain.Role(claims.Role)}, nil
}
