package token

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const UserKey = "user"

var (
	ErrNoSigningKey = errors.New("token: signing key is empty")
	ErrUnauthorized = errors.New("invalid username or password")
)

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Issuer hands out HS256 tokens to users whose bcrypt hash matches.
type Issuer struct {
	signingKey []byte
	users      map[string]string
	ttl        time.Duration
}

func NewIssuer(signingKey []byte, users map[string]string, ttl time.Duration) (*Issuer, error) {
	if len(signingKey) == 0 {
		return nil, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{signingKey: signingKey, users: users, ttl: ttl}, nil
}

func (is *Issuer) Login(user User) (string, error) {
	storedPassword, ok := is.users[user.Username]
	if !ok || !checkPasswordHash(user.Password, storedPassword) {
		return "", ErrUnauthorized
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(is.ttl).Unix(),
	})
	return token.SignedString(is.signingKey)
}

// Verify returns the username carried by a valid token.
func (is *Issuer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return is.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrUnauthorized
	}
	username, _ := claims["username"].(string)
	return username, nil
}

func (is *Issuer) GetToken(c *gin.Context) {
	var user User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	tokenString, err := is.Login(user)
	if errors.Is(err, ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		log.Printf("signing token: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

func (is *Issuer) JwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Forbidden"})
			return
		}

		username, err := is.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Println(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Forbidden"})
			return
		}

		c.Set(UserKey, username)
		c.Next()
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
