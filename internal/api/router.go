package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, accessSecret, refreshSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, AccessSecret: accessSecret, RefreshSecret: refreshSecret}
	itemsHandler := &ItemsHandler{DB: db}
	lifecycleHandler := &LifecycleHandler{DB: db}
	notificationsHandler := &NotificationsHandler{DB: db}

	authMW := AuthMiddleware(accessSecret)
	storekeeper := func(h http.HandlerFunc) http.Handler {
		return authMW(RequireStorekeeper(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(http.HandlerFunc(h))
	}

	// Users: registration, sessions, profile, inbox.
	mux.HandleFunc("POST /api/users/register", authHandler.Register)
	mux.HandleFunc("POST /api/users/login", authHandler.Login)
	mux.HandleFunc("POST /api/users/refresh-token", authHandler.Refresh)
	mux.Handle("POST /api/users/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/users/profile", authed(authHandler.Profile))
	mux.Handle("GET /api/users/notifications", authed(notificationsHandler.List))
	mux.Handle("POST /api/users/notifications/settings", authed(notificationsHandler.UpdateSettings))

	// Items: read (all roles), write (storekeeper only).
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("GET /api/items/search", authed(itemsHandler.Search))
	mux.Handle("GET /api/items/assigned", authed(lifecycleHandler.AssignedItems))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("POST /api/items", storekeeper(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", storekeeper(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", storekeeper(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", storekeeper(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed(itemsHandler.GetImage))

	// Custody lifecycle: storekeeper moves stock, anyone may request.
	mux.Handle("POST /api/items/{id}/assign", storekeeper(lifecycleHandler.Assign))
	mux.Handle("PUT /api/items/{id}/return", storekeeper(lifecycleHandler.Return))
	mux.Handle("PUT /api/items/{id}/reassign", storekeeper(lifecycleHandler.Reassign))
	mux.Handle("POST /api/items/{id}/request", authed(lifecycleHandler.Request))

	return mux
}
