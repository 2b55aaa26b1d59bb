package api

import (
	"net/http"

	"github.com/gurkanbulca/teamtask/internal/service"
)

func (s *Server) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterCompanyRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.services.Auth.RegisterCompany(r.Context(), req)
	s.respond(w, http.StatusCreated, resp, err)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.services.Auth.Login(r.Context(), req)
	s.respond(w, http.StatusOK, resp, err)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterUserRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.services.Auth.RegisterUser(r.Context(), req)
	s.respond(w, http.StatusCreated, resp, err)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	resp, err := s.services.Auth.Me(r.Context())
	s.respond(w, http.StatusOK, resp, err)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	resp, err := s.services.Auth.DeleteCompany(r.Context())
	s.respond(w, http.StatusOK, resp, err)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.List(r.Context())
	s.respond(w, http.StatusOK, users, err)
}

func (s *Server) handleEmployeeList(w http.ResponseWriter, r *http.Request) {
	users, err := s.services.Users.Employees(r.Context())
	s.respond(w, http.StatusOK, users, err)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Users.Get(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, user, err)
}

func (s *Server) handleEmployeeCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := s.services.Users.CreateEmployee(r.Context(), req)
	s.respond(w, http.StatusCreated, user, err)
}

func (s *Server) handleEmployeeDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.services.Users.DeleteEmployee(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, resp, err)
}
