package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"mostwatchedlist/internal/auth"
	"mostwatchedlist/internal/domain"
	"mostwatchedlist/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	movies  service.MovieService
	codec   *auth.Codec
	docsDir string
}

func NewHandler(users service.UserService, movies service.MovieService, codec *auth.Codec, docsDir string) *Handler {
	return &Handler{
		users:   users,
		movies:  movies,
		codec:   codec,
		docsDir: docsDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the most watched list!")
	})
	router.GET("/documentation", func(c *gin.Context) {
		c.File(filepath.Join(h.docsDir, "documentation.html"))
	})
	router.GET("/index", func(c *gin.Context) {
		c.File(filepath.Join(h.docsDir, "index.html"))
	})

	router.POST("/login", h.login)
	router.POST("/users", h.registerUser)
	router.GET("/users", h.listUsers)

	authed := router.Group("/", RequireAuth(h.codec))
	{
		authed.GET("/movies", h.listMovies)
		authed.GET("/movies/:title", h.getMovie)
		authed.GET("/genres/:name", h.getGenre)
		authed.GET("/directors/:name", h.getDirector)

		owner := RequireOwner()
		authed.GET("/users/:username", owner, h.getUser)
		authed.PUT("/users/:username", owner, h.updateUser)
		authed.DELETE("/users/:username", owner, h.deleteUser)
		authed.GET("/users/:username/movies", owner, h.listFavorites)
		authed.POST("/users/:username/movies/:movieId", owner, h.addFavorite)
		authed.DELETE("/users/:username/movies/:movieId", owner, h.removeFavorite)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login verifies credentials and responds with {user, token}. A still-valid
// bearer token presented on the request is returned as-is instead of minting
// a new one, as long as its subject matches the authenticated user.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Identical body for unknown username and wrong password.
			c.JSON(http.StatusBadRequest, gin.H{"message": "Something is not right.", "user": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if existing := bearerToken(c.Request); existing != "" {
		claims, err := h.codec.Decode(existing)
		if err == nil && claims.Subject == user.Username && claims.ExpiresAfter(time.Now()) {
			c.JSON(http.StatusOK, gin.H{"user": userToResponse(user), "token": existing})
			return
		}
		// Invalid, expired or foreign token: fall through and mint.
	}

	token, err := h.codec.Encode(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user), "token": token})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Birthday: req.Birthday,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s already exists", req.Username)})
			return
		}
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
	Birthday *string `json:"birthday"`
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("username"), service.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Birthday: req.Birthday,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
			return
		}
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	username := c.Param("username")
	if err := h.users.Delete(c.Request.Context(), username); err != nil {
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": username})
}

func (h *Handler) listFavorites(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.renderUserError(c, err)
		return
	}

	movies, err := h.movies.ListMovies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	byID := make(map[string]domain.Movie, len(movies))
	for _, movie := range movies {
		byID[movie.ID] = movie
	}

	entries := make([]string, 0, len(user.FavoriteMovies))
	for _, id := range user.FavoriteMovies {
		if movie, ok := byID[id]; ok {
			entries = append(entries, fmt.Sprintf("%s (ID: %s)", movie.Title, id))
		}
	}
	sort.Strings(entries)
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) addFavorite(c *gin.Context) {
	user, err := h.users.AddFavorite(c.Request.Context(), c.Param("username"), c.Param("movieId"))
	if err != nil {
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) removeFavorite(c *gin.Context) {
	user, err := h.users.RemoveFavorite(c.Request.Context(), c.Param("username"), c.Param("movieId"))
	if err != nil {
		h.renderUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listMovies(c *gin.Context) {
	movies, err := h.movies.ListMovies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]MovieResponse, len(movies))
	for i := range movies {
		resp[i] = movieToResponse(movies[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getMovie(c *gin.Context) {
	movie, err := h.movies.GetMovieByTitle(c.Request.Context(), c.Param("title"))
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%q is not in the catalog", c.Param("title"))})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, movieToResponse(*movie))
}

func (h *Handler) getGenre(c *gin.Context) {
	genre, err := h.movies.GetGenre(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no movies match the %s genre", c.Param("name"))})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": genre.Name, "description": genre.Description})
}

func (h *Handler) getDirector(c *gin.Context) {
	director, err := h.movies.GetDirector(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no movies have %s listed as a director", c.Param("name"))})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": director.Name, "bio": director.Bio})
}

func (h *Handler) renderUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	default:
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// isValidationError marks service-level input rejections, which carry no
// wrapped cause and are safe to echo back.
func isValidationError(err error) bool {
	switch err.Error() {
	case "username is required", "password is required", "password must be at least 8 characters":
		return true
	}
	return false
}

type UserResponse struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Birthday       string   `json:"birthday"`
	FavoriteMovies []string `json:"favorite_movies"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

type MovieResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"genre"`
	Director struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	} `json:"director"`
	Featured bool `json:"featured"`
}

func userToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Birthday:       user.Birthday,
		FavoriteMovies: user.FavoriteMovies,
		CreatedAt:      user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      user.UpdatedAt.Format(time.RFC3339),
	}
	if resp.FavoriteMovies == nil {
		resp.FavoriteMovies = []string{}
	}
	return resp
}

func movieToResponse(movie domain.Movie) MovieResponse {
	resp := MovieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Featured:    movie.Featured,
	}
	resp.Genre.Name = movie.Genre.Name
	resp.Genre.Description = movie.Genre.Description
	resp.Director.Name = movie.Director.Name
	resp.Director.Bio = movie.Director.Bio
	return resp
}
