package services

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/models"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSecretKey    = errors.New("invalid secret key")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrCredentialsTooShort = errors.New("username or password too short")
	ErrOwnerImmutable      = errors.New("owner accounts cannot be deleted")
	ErrOwnerOnly           = errors.New("only owners can delete accounts")
	ErrAccountNotFound     = errors.New("account not found")
)

const tokenTTL = 24 * time.Hour

type AccountService struct {
	db        *gorm.DB
	jwtSecret []byte
	secretKey string
}

// NewAccountService returns an AccountService. jwtSecret signs session
// tokens; secretKey gates self-service account creation.
func NewAccountService(db *gorm.DB, jwtSecret, secretKey string) *AccountService {
	return &AccountService{db: db, jwtSecret: []byte(jwtSecret), secretKey: secretKey}
}

// Seed creates the default owner accounts when the table is empty.
func (s *AccountService) Seed() error {
	var count int64
	if err := s.db.Model(&models.AdminAccount{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, acct := range models.DefaultOwnerAccounts() {
		if err := s.db.Create(&acct).Error; err != nil {
			return err
		}
	}
	logger.Log().Info("seeded default owner accounts")
	return nil
}

// Authenticate checks a credential pair (username case-insensitive, password
// exact) and returns the account plus a signed session token. Hardwired
// owners are coerced to OWNER rank regardless of the stored row.
func (s *AccountService) Authenticate(username, password string) (*models.AdminAccount, string, error) {
	var accounts []models.AdminAccount
	if err := s.db.Find(&accounts).Error; err != nil {
		return nil, "", err
	}

	var match *models.AdminAccount
	for i := range accounts {
		if strings.EqualFold(accounts[i].Username, username) && accounts[i].Password == password {
			match = &accounts[i]
			break
		}
	}
	if match == nil {
		return nil, "", ErrInvalidCredentials
	}

	if models.IsHardwiredOwner(match.Username) && match.Rank != models.RankOwner {
		match.Rank = models.RankOwner
		if err := s.db.Model(match).Update("rank", models.RankOwner).Error; err != nil {
			logger.Log().WithError(err).Warn("failed to persist owner rank coercion")
		}
	}

	token, err := s.issueToken(match)
	if err != nil {
		return nil, "", err
	}
	return match, token, nil
}

// CreateWithSecret registers a new admin account. The shared secret key is
// compared case-insensitively; rank defaults to ADMIN unless the username is
// a hardwired owner.
func (s *AccountService) CreateWithSecret(username, password, secretKey string) (*models.AdminAccount, error) {
	if !strings.EqualFold(secretKey, s.secretKey) {
		return nil, ErrInvalidSecretKey
	}
	if len(username) < 3 || len(password) < 2 {
		return nil, ErrCredentialsTooShort
	}

	var count int64
	err := s.db.Model(&models.AdminAccount{}).
		Where("LOWER(username) = ?", strings.ToLower(username)).Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	rank := models.RankAdmin
	if models.IsHardwiredOwner(username) {
		rank = models.RankOwner
	}
	acct := models.AdminAccount{Username: username, Password: password, Rank: rank}
	if err := s.db.Create(&acct).Error; err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{"username": username, "rank": string(rank)}).Info("admin account created")
	return &acct, nil
}

// Delete removes an account. Only owners may delete, and hardwired owners
// can never be removed.
func (s *AccountService) Delete(targetUsername string, actorRank models.AdminRank) error {
	if actorRank != models.RankOwner {
		return ErrOwnerOnly
	}
	if models.IsHardwiredOwner(targetUsername) {
		return ErrOwnerImmutable
	}
	res := s.db.Where("LOWER(username) = ?", strings.ToLower(targetUsername)).
		Delete(&models.AdminAccount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// List returns all accounts without passwords serialized.
func (s *AccountService) List() ([]models.AdminAccount, error) {
	var accounts []models.AdminAccount
	if err := s.db.Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Claims is the JWT payload carried by admin session tokens.
type Claims struct {
	Username string           `json:"username"`
	Rank     models.AdminRank `json:"rank"`
	jwt.RegisteredClaims
}

func (s *AccountService) issueToken(acct *models.AdminAccount) (string, error) {
	claims := Claims{
		Username: acct.Username,
		Rank:     acct.Rank,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates a session token and returns its claims.
func (s *AccountService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
