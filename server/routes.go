package server

import (
	"net/http"

	"fleetdash/internal/auth"
	"fleetdash/internal/models"

	"github.com/gorilla/mux"
)

// Dashboard pages each API route belongs to. Access to the route follows
// access to the page.
const (
	pageLogin    = "/login"
	pageRegister = "/register"
	pageForgot   = "/forgot-password"
	pageReset    = "/reset-password/token"
	pageHome     = "/"
	pageDevices  = "/devices"
	pageHealth   = "/devices/health"
	pageDetails  = "/devices/details"
	pageVideos   = "/videos"
	pageBrands   = "/brands"
	pageSettings = "/settings"
	pageUsers    = "/users"
)

// guard answers 401 when the page would send the visitor to /login and
// 403 for any other redirect.
func (a *App) guard(page string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := auth.Access(auth.PrincipalOf(a.env.AuthStore.State()), page)
		if d.Allow {
			next(w, r)
			return
		}
		status := http.StatusForbidden
		if d.Redirect == pageLogin {
			status = http.StatusUnauthorized
		}
		models.WriteProblem(w, status, http.StatusText(status), "redirect to "+d.Redirect,
			map[string]string{"redirect": d.Redirect})
	}
}

func (a *App) registerAPI(r *mux.Router) {
	on := func(path, page string, fn pageFunc, methods ...string) {
		r.HandleFunc(path, a.guard(page, a.page(fn))).Methods(methods...)
	}
	get, post, put, del := http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete

	// ── session ──
	r.HandleFunc("/session", a.handleSession).Methods(get)
	r.HandleFunc("/access", a.handleAccess).Methods(get)
	r.HandleFunc("/notices", a.handleNotices).Methods(get)
	r.HandleFunc("/session/logout", a.page(a.logout)).Methods(post)
	on("/session/login", pageLogin, a.login, post)
	on("/session/register", pageRegister, a.register, post)
	on("/session/forgot-password", pageForgot, a.forgotPassword, post)
	on("/session/reset-password/{token}", pageReset, a.resetPassword, post)

	on("/dashboard", pageHome, a.dashboard, get)

	// ── devices ──
	on("/devices", pageDevices, a.listDevices, get)
	on("/devices", pageDevices, a.createDevice, post)
	on("/devices/bulk/status", pageDevices, a.bulkStatus, post)
	on("/devices/bulk/delete", pageDevices, a.bulkDelete, post)
	on("/devices/bulk/command", pageDevices, a.bulkCommand, post)
	on("/devices/health", pageHealth, a.healthOverview, get)
	on("/devices/hw/{rpiID}", pageDetails, a.deviceDetails, get)
	on("/devices/hw/{rpiID}/wifi", pageDetails, a.deviceWifi, get)
	on("/devices/hw/{rpiID}/reboot", pageDetails, a.deviceReboot, post)
	on("/devices/hw/{rpiID}/sync", pageDetails, a.deviceSync, post)
	on("/devices/hw/{rpiID}/toggle", pageDetails, a.deviceDetailsToggle, post)
	on("/devices/{id}", pageDevices, a.openDevice, get)
	on("/devices/{id}", pageDevices, a.updateDevice, put)
	on("/devices/{id}", pageDevices, a.deleteDevice, del)
	on("/devices/{id}/toggle", pageDevices, a.toggleDevice, post)
	on("/devices/{id}/status", pageDevices, a.setDeviceStatus, put)

	// ── media ──
	on("/videos", pageVideos, a.listVideos, get)
	on("/videos", pageVideos, a.uploadVideo, post)
	on("/videos/progress", pageVideos, a.uploadProgress, get)
	on("/videos/{id}", pageVideos, a.updateVideo, put)
	on("/videos/{id}", pageVideos, a.deleteVideo, del)
	on("/brands", pageBrands, a.listBrands, get)
	on("/brands", pageBrands, a.createBrand, post)
	on("/brands/{id}", pageBrands, a.showBrand, get)
	on("/brands/{id}", pageBrands, a.updateBrand, put)
	on("/brands/{id}", pageBrands, a.deleteBrand, del)

	// ── users ──
	on("/users", pageUsers, a.listUsers, get)
	on("/users/stats", pageUsers, a.userStats, get)
	on("/users/{id}/activate", pageUsers, a.activateUser, post)
	on("/users/{id}", pageUsers, a.deleteUser, del)

	// ── settings ──
	on("/settings/profile", pageSettings, a.updateProfile, put)
	on("/settings/password", pageSettings, a.changePassword, put)
	on("/settings/deactivate", pageSettings, a.deactivate, post)
}
