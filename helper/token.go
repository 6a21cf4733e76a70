package helper

import (
	"alumni_events/constants"
	"alumni_events/database"
	"alumni_events/model"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GetAccountByUsername(u string) (*model.Account, error) {
	db := database.DB
	var account model.Account
	if err := db.Where(&model.Account{Username: u}).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func GetAlumnusByEmail(e string) (*model.Alumnus, error) {
	db := database.DB
	var alumnus model.Alumnus
	if err := db.Where(&model.Alumnus{Email: e}).First(&alumnus).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alumnus, nil
}

func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["alumnusId"] = tokenClaim.AlumnusId
	claims["accountId"] = tokenClaim.AccountId
	claims["exp"] = time.Now().Add(time.Minute * 60).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func GenerateRefreshToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["alumnusId"] = tokenClaim.AlumnusId
	claims["accountId"] = tokenClaim.AccountId
	claims["exp"] = time.Now().Add(time.Hour * 24 * 7).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JwtSecret, nil
	})

	return token, err
}

// GetInfoAccountFromToken resolves the staff account behind the request.
// Returns the claim plus role flags.
func GetInfoAccountFromToken(c *fiber.Ctx) (model.TokenClaim, bool, bool) {
	u := c.Locals("user")
	token, ok := u.(*jwt.Token)
	if !ok || token == nil {
		return model.TokenClaim{}, false, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.TokenClaim{}, false, false
	}

	accountIdFloat, _ := claims["accountId"].(float64)
	if accountIdFloat == 0 {
		return model.TokenClaim{}, false, false
	}
	username, _ := claims["username"].(string)

	var account model.Account
	if err := database.DB.First(&account, uint(accountIdFloat)).Error; err != nil {
		return model.TokenClaim{}, false, false
	}
	if !account.Active {
		return model.TokenClaim{}, false, false
	}

	accountInfo := model.TokenClaim{
		AccountId: account.ID,
		Username:  username,
	}

	return accountInfo,
		account.Role == constants.ROLE_ADMIN,
		account.Role == constants.ROLE_ORGANIZER
}

// GetInfoAlumnusFromToken resolves the logged-in alumnus, or a guest claim
// when the request carries no usable token.
func GetInfoAlumnusFromToken(c *fiber.Ctx) (model.TokenClaim, model.Alumnus) {
	var emptyAlumnus model.Alumnus
	guestClaim := model.TokenClaim{}

	u := c.Locals("user")
	if u == nil {
		return guestClaim, emptyAlumnus
	}

	userToken, ok := u.(*jwt.Token)
	if !ok || userToken == nil {
		return guestClaim, emptyAlumnus
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return guestClaim, emptyAlumnus
	}

	alumnusIdFloat, _ := claims["alumnusId"].(float64)
	if alumnusIdFloat == 0 {
		return guestClaim, emptyAlumnus
	}

	username, _ := claims["username"].(string)
	tokenClaim := model.TokenClaim{
		AlumnusId: uint(alumnusIdFloat),
		Username:  username,
	}

	var alumnus model.Alumnus
	if err := database.DB.First(&alumnus, tokenClaim.AlumnusId).Error; err != nil {
		return guestClaim, emptyAlumnus
	}

	c.Locals("alumnus", &alumnus)
	return tokenClaim, alumnus
}
