// Package app switches the kiosk terminal between the capture screen and
// the admin dashboard.
package app

import (
	"context"
	"errors"
	"sync"

	"haaziri/internal/admin"
	"haaziri/internal/kiosk"
)

// ErrScreenHidden is returned for actions on a screen that is not showing.
var ErrScreenHidden = errors.New("screen not active")

// Screen names the visible screen.
type Screen string

const (
	ScreenCapture Screen = "capture"
	ScreenAdmin   Screen = "admin"
)

// App owns both flows. Only one screen is visible at a time and the camera
// runs only while the capture screen is.
type App struct {
	Kiosk *kiosk.Flow
	Admin *admin.Flow

	mu     sync.Mutex
	screen Screen
}

// New starts on the capture screen; call Start to bring up the camera.
func New(k *kiosk.Flow, a *admin.Flow) *App {
	return &App{Kiosk: k, Admin: a, screen: ScreenCapture}
}

// Start shows the capture screen.
func (a *App) Start(ctx context.Context) error {
	return a.Kiosk.Enter(ctx)
}

// Screen returns the visible screen.
func (a *App) Screen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// RequireScreen fails with ErrScreenHidden unless s is showing.
func (a *App) RequireScreen(s Screen) error {
	if a.Screen() != s {
		return ErrScreenHidden
	}
	return nil
}

// Login opens the dashboard on success, which hides the capture screen.
func (a *App) Login(ctx context.Context, passcode string) error {
	if err := a.Admin.Login(ctx, passcode); err != nil {
		return err
	}
	a.mu.Lock()
	a.screen = ScreenAdmin
	a.mu.Unlock()
	a.Kiosk.Leave()
	return nil
}

// Logout returns to the capture screen.
func (a *App) Logout(ctx context.Context) error {
	a.Admin.Back()
	a.mu.Lock()
	a.screen = ScreenCapture
	a.mu.Unlock()
	return a.Kiosk.Enter(ctx)
}

// Shutdown releases the camera.
func (a *App) Shutdown() {
	a.Kiosk.Leave()
}
