package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/firtrack/fir-tracking-api/api"
	"github.com/firtrack/fir-tracking-api/config"
	"github.com/firtrack/fir-tracking-api/databases"
	"github.com/firtrack/fir-tracking-api/models"
)

// User exported for testing purposes
type User struct {
	DB     databases.UserDatabase
	Config config.Config
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserCreateHandler registers a new user with a bcrypt-hashed password
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		config.ErrorStatus("missing required field", http.StatusBadRequest, w, errors.New("name, email and password are required"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleClient
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleClient {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, errors.New("role must be admin or client"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.FindOne(ctx, bson.M{"email": req.Email}); err == nil {
		config.ErrorStatus("user already exists", http.StatusConflict, w, errors.New("email already registered"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	newUser := models.User{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      req.Role,
		CreatedAt: time.Now(),
	}

	if _, err := u.DB.InsertOne(ctx, newUser); err != nil {
		config.ErrorStatus("failed to create new user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "user created successfully",
		"id":      newUser.ID.Hex(),
	})
}

// UserCheckEmailHandler reports whether an email is already registered
func (u User) UserCheckEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := u.DB.FindOne(ctx, bson.M{"email": req.Email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"exists": false}`))
			return
		}
		config.ErrorStatus("failed to check user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"exists": true}`))
}

// CreateWsTicketHandler issues a short-lived signed ticket that the websocket
// endpoint accepts in place of an Authorization header (browsers cannot set
// headers on websocket dials)
func (u User) CreateWsTicketHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get authenticated user", http.StatusUnauthorized, w, errors.New("no user in context"))
		return
	}

	if u.Config.JWTSecret == "" {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("JWT_SECRET is not set"))
		return
	}

	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
		"typ":   "ws-ticket",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.Config.JWTSecret))
	if err != nil {
		config.ErrorStatus("ticket generation failed", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"ticket": signed})
}
