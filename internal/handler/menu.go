package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	CreateMenuCategory(ctx context.Context, arg database.CreateMenuCategoryParams) (database.MenuCategory, error)
	ListMenuCategories(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuCategory, error)
	UpdateMenuCategory(ctx context.Context, arg database.UpdateMenuCategoryParams) (database.MenuCategory, error)
	DeleteMenuCategory(ctx context.Context, arg database.GetTableParams) error
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg database.GetMenuItemParams) error
}

// MenuHandler handles menu category and item endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/menu
// Any staff can read the full menu; editing is for admins.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetMenu)
	r.Get("/items/{id}", h.GetItem)

	admin := r.With(middleware.RequireRole(enum.RoleAdmin))
	admin.Post("/categories", h.CreateCategory)
	admin.Put("/categories/{id}", h.UpdateCategory)
	admin.Delete("/categories/{id}", h.DeleteCategory)
	admin.Post("/items", h.CreateItem)
	admin.Put("/items/{id}", h.UpdateItem)
	admin.Delete("/items/{id}", h.DeleteItem)
}

// RegisterPublicRoutes registers the customer-facing menu endpoint. Only
// active categories and items are returned.
func (h *MenuHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.GetPublicMenu)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
}

type addonRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type menuItemRequest struct {
	CategoryID  string         `json:"category_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       string         `json:"price"`
	Addons      []addonRequest `json:"addons"`
	MaxAddons   *int32         `json:"max_addons"`
	IsActive    *bool          `json:"is_active"`
}

type menuItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  *string         `json:"category_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       string          `json:"price"`
	Addons      []addonResponse `json:"addons"`
	MaxAddons   *int32          `json:"max_addons"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type menuResponse struct {
	Categories []categoryResponse `json:"categories"`
	Items      []menuItemResponse `json:"items"`
}

// --- Category handlers ---

func (h *MenuHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.CreateMenuCategory(r.Context(), database.CreateMenuCategoryParams{
		RestaurantID: restaurantID,
		Name:         req.Name,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		logger.L().Error("create menu category", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *MenuHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	restaurantID, categoryID, ok := parseMenuPath(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := h.store.UpdateMenuCategory(r.Context(), database.UpdateMenuCategoryParams{
		ID:           categoryID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		SortOrder:    req.SortOrder,
		IsActive:     isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		logger.L().Error("update menu category", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (h *MenuHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	restaurantID, categoryID, ok := parseMenuPath(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteMenuCategory(r.Context(), database.GetTableParams{
		ID:           categoryID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		logger.L().Error("delete menu category", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Item handlers ---

func (h *MenuHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := buildMenuItemParams(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		RestaurantID: restaurantID,
		CategoryID:   params.CategoryID,
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		Addons:       params.Addons,
		MaxAddons:    params.MaxAddons,
	})
	if err != nil {
		logger.L().Error("create menu item", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, itemID, ok := parseMenuPath(w, r)
	if !ok {
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		logger.L().Error("get menu item", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, itemID, ok := parseMenuPath(w, r)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := buildMenuItemParams(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
		CategoryID:   params.CategoryID,
		Name:         params.Name,
		Description:  params.Description,
		Price:        params.Price,
		Addons:       params.Addons,
		MaxAddons:    params.MaxAddons,
		IsActive:     isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		logger.L().Error("update menu item", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

func (h *MenuHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, itemID, ok := parseMenuPath(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteMenuItem(r.Context(), database.GetMenuItemParams{
		ID:           itemID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		logger.L().Error("delete menu item", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Listing ---

// GetMenu returns the full menu including inactive entries, for staff editing.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	h.listMenu(w, r, false)
}

// GetPublicMenu returns the active menu customers order from.
func (h *MenuHandler) GetPublicMenu(w http.ResponseWriter, r *http.Request) {
	h.listMenu(w, r, true)
}

func (h *MenuHandler) listMenu(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	categories, err := h.store.ListMenuCategories(r.Context(), restaurantID)
	if err != nil {
		logger.L().Error("list menu categories", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	items, err := h.store.ListMenuItems(r.Context(), database.ListMenuItemsParams{
		RestaurantID: restaurantID,
		ActiveOnly:   activeOnly,
	})
	if err != nil {
		logger.L().Error("list menu items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := menuResponse{
		Categories: make([]categoryResponse, 0, len(categories)),
		Items:      make([]menuItemResponse, 0, len(items)),
	}
	for _, c := range categories {
		if activeOnly && !c.IsActive {
			continue
		}
		resp.Categories = append(resp.Categories, toCategoryResponse(c))
	}
	for _, i := range items {
		resp.Items = append(resp.Items, toMenuItemResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

type menuItemParams struct {
	CategoryID  pgtype.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Addons      []database.Addon
	MaxAddons   pgtype.Int4
}

func buildMenuItemParams(req menuItemRequest) (menuItemParams, error) {
	var p menuItemParams

	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" {
		return p, errors.New("name is required")
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return p, errors.New("price must be a non-negative decimal")
	}
	if err := p.Price.Scan(price.StringFixed(2)); err != nil {
		return p, errors.New("price must be a non-negative decimal")
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return p, errors.New("invalid category ID")
		}
		p.CategoryID = pgtype.UUID{Bytes: categoryID, Valid: true}
	}
	p.Description = textOrEmpty(req.Description)

	seen := make(map[string]bool, len(req.Addons))
	for _, a := range req.Addons {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return p, errors.New("addon name is required")
		}
		if seen[name] {
			return p, errors.New("duplicate addon name: " + name)
		}
		seen[name] = true
		addonPrice, err := decimal.NewFromString(a.Price)
		if err != nil || addonPrice.IsNegative() {
			return p, errors.New("addon price must be a non-negative decimal")
		}
		p.Addons = append(p.Addons, database.Addon{Name: name, Price: addonPrice})
	}

	if req.MaxAddons != nil {
		if *req.MaxAddons < 0 {
			return p, errors.New("max_addons must be >= 0")
		}
		p.MaxAddons = pgtype.Int4{Int32: *req.MaxAddons, Valid: true}
	}

	return p, nil
}

func parseMenuPath(w http.ResponseWriter, r *http.Request) (restaurantID, id uuid.UUID, ok bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, id, true
}

func toCategoryResponse(c database.MenuCategory) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		IsActive:  c.IsActive,
	}
}

func toMenuItemResponse(i database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          i.ID,
		CategoryID:  uuidOrNil(i.CategoryID),
		Name:        i.Name,
		Description: textOrNil(i.Description),
		Price:       numericToString(i.Price),
		Addons:      make([]addonResponse, len(i.Addons)),
		IsActive:    i.IsActive,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	for j, a := range i.Addons {
		resp.Addons[j] = addonResponse{Name: a.Name, Price: a.Price.StringFixed(2)}
	}
	if i.MaxAddons.Valid {
		resp.MaxAddons = &i.MaxAddons.Int32
	}
	return resp
}
