// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/validation"
)

// handleLogin verifies the admin password and issues the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), models.CodeValidation)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, err.Message(), models.CodeValidation)
		return
	}

	sess, err := s.auth.Login(req.Password, auth.ClientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			respondError(w, err.Error(), models.CodeRateLimited)
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, err.Error(), models.CodeAuthFailed)
		default:
			respondError(w, "登录失败", models.CodeInternal)
		}
		return
	}

	http.SetCookie(w, auth.SessionCookie(sess.ID, s.auth.SessionTTL()))
	info := sess.Info()
	respondSuccess(w, models.AuthCheckResponse{Authenticated: true, Session: &info})
}

// handleLogout deletes the current session and clears the cookie. Callers
// without a valid session never reach here; requireAuth rejects them first.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(auth.TokenFromRequest(r)); err != nil {
		respondError(w, "注销失败", models.CodeDatabase)
		return
	}
	http.SetCookie(w, auth.ClearSessionCookie())
	respondSuccess(w, map[string]string{"message": "已注销"})
}

// handleAuthCheck reports session validity without demanding one: a missing
// or stale session yields authenticated=false, not a 401.
func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	sess, err := s.auth.Check(auth.TokenFromRequest(r))
	if err != nil {
		respondSuccess(w, models.AuthCheckResponse{Authenticated: false})
		return
	}
	info := sess.Info()
	respondSuccess(w, models.AuthCheckResponse{Authenticated: true, Session: &info})
}
