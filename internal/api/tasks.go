package api

import (
	"net/http"

	"github.com/gurkanbulca/teamtask/internal/service"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := s.services.Tasks.ListTasks(r.Context(), service.ListTasksRequest{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
		Type:     q.Get("type"),
	})
	s.respond(w, http.StatusOK, tasks, err)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	task, err := s.services.Tasks.GetTask(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, task, err)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := s.services.Tasks.CreateTask(r.Context(), req)
	s.respond(w, http.StatusCreated, task, err)
}

func (s *Server) handleSubtaskCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := s.services.Tasks.CreateSubtask(r.Context(), r.PathValue("id"), req)
	s.respond(w, http.StatusCreated, task, err)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	task, err := s.services.Tasks.UpdateTask(r.Context(), r.PathValue("id"), req)
	s.respond(w, http.StatusOK, task, err)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	task, err := s.services.Tasks.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	s.respond(w, http.StatusOK, task, err)
}

func (s *Server) handleTaskPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority string `json:"priority"`
	}
	if !decode(w, r, &req) {
		return
	}
	task, err := s.services.Tasks.UpdatePriority(r.Context(), r.PathValue("id"), req.Priority)
	s.respond(w, http.StatusOK, task, err)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.services.Tasks.DeleteTask(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, resp, err)
}

func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	comments, err := s.services.Comments.List(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, comments, err)
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	var req service.CommentRequest
	if !decode(w, r, &req) {
		return
	}
	comment, err := s.services.Comments.Create(r.Context(), r.PathValue("id"), req)
	s.respond(w, http.StatusCreated, comment, err)
}

func (s *Server) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	var req service.CommentRequest
	if !decode(w, r, &req) {
		return
	}
	comment, err := s.services.Comments.Update(r.Context(), r.PathValue("id"), req)
	s.respond(w, http.StatusOK, comment, err)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	resp, err := s.services.Comments.Delete(r.Context(), r.PathValue("id"))
	s.respond(w, http.StatusOK, resp, err)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	reply, err := s.services.Chat.Chat(r.Context(), req.Message)
	s.respond(w, http.StatusOK, chatResponse{Response: reply}, err)
}
