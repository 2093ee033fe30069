package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	"github.com/ridecrew/ridecrew/internal/providers"
	"github.com/ridecrew/ridecrew/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const (
	DemoUsername = "demo_user"
	DemoEmail    = "demo@example.com"
)

// Claim is a successful provider callback waiting to be resolved to a local account.
type Claim interface {
	Provider() string
}

// GoogleClaim resolves by primary email.
type GoogleClaim struct {
	Profile providers.GoogleProfile
}

func (GoogleClaim) Provider() string { return models.ProviderGoogle }

// StravaClaim resolves by athlete id. SessionUserID, when set, is the account
// an unseen athlete gets linked to instead of a new one.
type StravaClaim struct {
	Tokens        providers.Tokens
	Athlete       providers.Athlete
	SessionUserID string
}

func (StravaClaim) Provider() string { return models.ProviderStrava }

type resolver func(ctx context.Context, claim Claim) (*models.User, error)

type IdentityService struct {
	store           store.Store
	verifyPasswords bool
	resolvers       map[string]resolver
}

func NewIdentityService(s store.Store, verifyPasswords bool) *IdentityService {
	svc := &IdentityService{
		store:           s,
		verifyPasswords: verifyPasswords,
	}

	svc.resolvers = map[string]resolver{
		models.ProviderGoogle: svc.resolveGoogle,
		models.ProviderStrava: svc.resolveStrava,
	}

	return svc
}

// Resolve finds or creates the account behind a provider callback.
func (s *IdentityService) Resolve(ctx context.Context, claim Claim) (*models.User, error) {
	resolve, ok := s.resolvers[claim.Provider()]
	if !ok {
		return nil, errors.Errorf("no resolver for provider %q", claim.Provider())
	}
	return resolve(ctx, claim)
}

type SignupInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

func (s *IdentityService) LocalSignup(ctx context.Context, input SignupInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)
	if input.Username == "" || input.Email == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if _, err := s.store.GetUserByUsername(ctx, input.Username); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.Username
	}

	user := &models.User{
		Username: &input.Username,
		Email:    input.Email,
		Name:     name,
		Provider: models.ProviderLocal,
	}

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		user.PasswordHash = string(hash)
	}

	// The lookups above are advisory; the store has the final say.
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	log.WithField("user_id", user.ID).Info("Local account created")
	return user, nil
}

// LocalLogin accepts any password unless password verification is enabled.
// Unknown emails get an account derived from the email.
func (s *IdentityService) LocalLogin(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if s.verifyPasswords && user.PasswordHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
				return nil, ErrInvalidCredentials
			}
		}
		return user, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if s.verifyPasswords {
		return nil, ErrInvalidCredentials
	}

	localPart := emailLocalPart(email)

	return s.createWithUsername(ctx, &models.User{
		Email:    email,
		Name:     localPart,
		Provider: models.ProviderLocal,
	}, localPart)
}

func (s *IdentityService) DemoLogin(ctx context.Context) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, DemoUsername)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	username := DemoUsername
	user = &models.User{
		Username: &username,
		Email:    DemoEmail,
		Name:     "Demo User",
		Provider: models.ProviderLocal,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.store.GetUserByUsername(ctx, DemoUsername)
		}
		return nil, err
	}

	return user, nil
}

func (s *IdentityService) resolveGoogle(ctx context.Context, claim Claim) (*models.User, error) {
	profile := claim.(GoogleClaim).Profile

	email := normalizeEmail(profile.PrimaryEmail())
	if email == "" {
		return nil, ErrMissingEmail
	}

	googleID := profile.ID

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		existing.Provider = models.ProviderGoogle
		existing.GoogleID = &googleID
		if existing.Avatar == "" {
			existing.Avatar = profile.PrimaryPhoto()
		}
		if existing.Name == "" {
			existing.Name = profile.DisplayName
		}

		if err := s.store.UpdateUser(ctx, existing); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, ErrDuplicateAccount
			}
			return nil, err
		}

		log.WithField("user_id", existing.ID).Info("Google identity merged into existing account")
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Name:     profile.DisplayName,
		Avatar:   profile.PrimaryPhoto(),
		Provider: models.ProviderGoogle,
		GoogleID: &googleID,
	}

	return s.createWithUsername(ctx, user, emailLocalPart(email))
}

func (s *IdentityService) resolveStrava(ctx context.Context, claim Claim) (*models.User, error) {
	c := claim.(StravaClaim)
	athlete := c.Athlete

	existing, err := s.store.GetUserByStravaID(ctx, athlete.ID)
	switch {
	case err == nil:
		return s.linkStrava(ctx, existing, c)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if c.SessionUserID != "" {
		current, err := s.store.GetUser(ctx, c.SessionUserID)
		if err == nil {
			if current.StravaID != nil && *current.StravaID != athlete.ID {
				return nil, ErrStravaAlreadyLinked
			}
			current.StravaID = &athlete.ID
			return s.linkStrava(ctx, current, c)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	stravaID := athlete.ID
	user := &models.User{
		Name:     athlete.DisplayName(),
		Avatar:   athlete.Profile,
		Provider: models.ProviderStrava,
		StravaID: &stravaID,
		Location: athleteLocation(athlete),
	}
	setStravaTokens(user, c.Tokens)

	username := athlete.Username
	if username == "" {
		username = fmt.Sprintf("athlete%d", athlete.ID)
	}

	user.Email = normalizeEmail(athlete.Email)
	if user.Email == "" {
		user.Email = username + "@strava.local"
		if _, err := s.store.GetUserByEmail(ctx, user.Email); err == nil {
			user.Email = fmt.Sprintf("%s+%d@strava.local", username, athlete.ID)
		}
	}

	created, err := s.createWithUsername(ctx, user, athlete.Username)
	if errors.Is(err, ErrDuplicateAccount) && normalizeEmail(athlete.Email) == "" {
		// another account took the placeholder email first
		user.ID = ""
		user.Username = nil
		user.Email = fmt.Sprintf("%s+%d@strava.local", username, athlete.ID)
		created, err = s.createWithUsername(ctx, user, athlete.Username)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    created.ID,
		"athlete_id": athlete.ID,
	}).Info("Account created from Strava athlete")

	return created, nil
}

// linkStrava applies the known-athlete merge: fresh tokens always, avatar only if empty.
func (s *IdentityService) linkStrava(ctx context.Context, user *models.User, c StravaClaim) (*models.User, error) {
	user.Provider = models.ProviderStrava
	setStravaTokens(user, c.Tokens)

	if user.Avatar == "" {
		user.Avatar = c.Athlete.Profile
	}
	if len(user.Location) == 0 {
		user.Location = athleteLocation(c.Athlete)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrStravaAlreadyLinked
		}
		return nil, err
	}

	return user, nil
}

// createWithUsername inserts user, falling back to no username when the
// preferred one is already taken.
func (s *IdentityService) createWithUsername(ctx context.Context, user *models.User, username string) (*models.User, error) {
	if username != "" {
		if _, err := s.store.GetUserByUsername(ctx, username); errors.Is(err, store.ErrNotFound) {
			user.Username = &username
		}
	}

	err := s.store.CreateUser(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, err
	}

	// Lost a race on the username, or the email already exists.
	if existing, lookupErr := s.store.GetUserByEmail(ctx, user.Email); lookupErr == nil {
		if user.Provider == models.ProviderLocal {
			return existing, nil
		}
		return nil, ErrDuplicateAccount
	}

	user.Username = nil
	user.ID = ""
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return user, nil
}

func setStravaTokens(user *models.User, tokens providers.Tokens) {
	user.StravaAccessToken = tokens.AccessToken
	user.StravaRefreshToken = tokens.RefreshToken
	if !tokens.ExpiresAt.IsZero() {
		expiry := tokens.ExpiresAt
		user.StravaTokenExpiry = &expiry
	}
}

func athleteLocation(a providers.Athlete) datatypes.JSON {
	if a.City == "" && a.State == "" && a.Country == "" {
		return nil
	}

	raw, err := json.Marshal(map[string]string{
		"city":    a.City,
		"state":   a.State,
		"country": a.Country,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// normalizeEmail is applied before every lookup or insert keyed by email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
